// Package mintaddr provides the single type every layer of the hybrid
// candle provider passes a mint identifier through. Address deliberately
// exposes no case-normalizing method: any component that needs to fold
// case has to convert to string first, which makes an accidental
// case-folding bug visible in a diff instead of hiding inside a shared
// helper.
package mintaddr

import (
	"errors"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// ErrEmpty is returned when an address string is blank after trimming.
var ErrEmpty = errors.New("mintaddr: address is empty")

// ErrInvalidEVM is returned when an evm:<chainID> address is not a
// 20-byte hex address. Mixed-case checksum casing is not verified.
var ErrInvalidEVM = errors.New("mintaddr: invalid evm address")

// Chain identifies which ledger a mint address belongs to, serialized as
// "solana" or "evm:<chainID>" exactly as the wire format requires.
type Chain struct {
	evm   bool
	chain int64
}

// ChainSolana is the Solana chain identifier.
var ChainSolana = Chain{}

// ChainEVM builds an EVM chain identifier for the given chain ID.
func ChainEVM(id int64) Chain {
	return Chain{evm: true, chain: id}
}

func (c Chain) String() string {
	if !c.evm {
		return "solana"
	}
	return "evm:" + itoa(c.chain)
}

// IsEVM reports whether c identifies an EVM-compatible chain.
func (c Chain) IsEVM() bool { return c.evm }

// ChainID returns the EVM chain ID, or 0 for Solana.
func (c Chain) ChainID() int64 { return c.chain }

// ParseChain parses the wire representation produced by Chain.String.
func ParseChain(s string) (Chain, error) {
	s = strings.TrimSpace(s)
	if s == "solana" || s == "" {
		return ChainSolana, nil
	}
	const prefix = "evm:"
	if strings.HasPrefix(s, prefix) {
		id, err := parseInt64(s[len(prefix):])
		if err != nil {
			return Chain{}, errors.New("mintaddr: malformed evm chain id")
		}
		return ChainEVM(id), nil
	}
	return Chain{}, errors.New("mintaddr: unrecognized chain " + s)
}

// Address is a mint/token address that preserves the exact case it was
// constructed with, end to end.
type Address struct {
	chain Chain
	value string
}

// New validates and wraps raw as an Address on the given chain. The
// original casing of raw is preserved verbatim in the returned value.
func New(chain Chain, raw string) (Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Address{}, ErrEmpty
	}
	if chain.IsEVM() {
		if !ethcommon.IsHexAddress(trimmed) {
			return Address{}, ErrInvalidEVM
		}
	}
	return Address{chain: chain, value: trimmed}, nil
}

// Chain returns the chain this address belongs to.
func (a Address) Chain() Chain { return a.chain }

// String returns the address exactly as constructed, case preserved.
func (a Address) String() string { return a.value }

// Equal compares two addresses byte-for-byte, including case. Two
// addresses that differ only in case are NOT equal: the mint-case
// preservation invariant depends on every caller going through this
// method instead of ad hoc string comparison.
func (a Address) Equal(other Address) bool {
	return a.chain == other.chain && a.value == other.value
}

// CacheKey returns a case-sensitive key suitable for map/cache lookups.
// It is named distinctly from String to make call sites self-documenting
// about why they are converting to a plain string.
func (a Address) CacheKey() string {
	return a.chain.String() + ":" + a.value
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func parseInt64(s string) (int64, error) {
	if s == "" {
		return 0, errors.New("empty")
	}
	var v int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errors.New("not a digit")
		}
		v = v*10 + int64(r-'0')
	}
	return v, nil
}
