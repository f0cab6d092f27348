package artifact_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertlab/pkg/artifact"
)

type sample struct {
	B int    `json:"b"`
	A string `json:"a"`
}

func TestHashIsFieldOrderIndependent(t *testing.T) {
	type alt struct {
		A string `json:"a"`
		B int    `json:"b"`
	}
	h1, err := artifact.Hash(sample{B: 2, A: "x"})
	require.NoError(t, err)
	h2, err := artifact.Hash(alt{A: "x", B: 2})
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestStorePutIsAtomicAndContentAddressed(t *testing.T) {
	dir := t.TempDir()
	store, err := artifact.NewStore(dir)
	require.NoError(t, err)

	hash, path, err := store.Put(artifact.KindMetrics, sample{A: "hello", B: 42})
	require.NoError(t, err)
	require.FileExists(t, path)
	assert.Contains(t, path, filepath.Join(string(artifact.KindMetrics), hash[:2]))

	// No stray temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}

	var got sample
	require.NoError(t, store.Get(artifact.KindMetrics, hash, &got))
	assert.Equal(t, sample{A: "hello", B: 42}, got)

	hash2, path2, err := store.Put(artifact.KindMetrics, sample{A: "hello", B: 42})
	require.NoError(t, err)
	assert.Equal(t, hash, hash2)
	assert.Equal(t, path, path2)
}
