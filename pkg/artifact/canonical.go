package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Canonicalize marshals v to JSON with map keys sorted and struct field
// order normalized, so the same logical value always hashes to the same
// bytes regardless of how its Go struct happened to declare its fields.
// encoding/json already sorts map[string]any keys; the extra round trip
// through a generic map flattens struct field order into that same
// sorted-map representation. No library in the reference corpus performs
// canonical-JSON hashing, so this is implemented directly on
// encoding/json + crypto/sha256 (see DESIGN.md for the stdlib
// justification).
func Canonicalize(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("artifact: marshal for canonicalization: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("artifact: unmarshal for canonicalization: %w", err)
	}
	out, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("artifact: re-marshal canonical form: %w", err)
	}
	return out, nil
}

// Hash returns the lowercase hex SHA-256 digest of v's canonical form.
func Hash(v any) (string, error) {
	canon, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}
