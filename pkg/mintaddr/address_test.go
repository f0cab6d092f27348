package mintaddr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertlab/pkg/mintaddr"
)

func TestAddressPreservesCase(t *testing.T) {
	addr, err := mintaddr.New(mintaddr.ChainSolana, "AbCdEf123pump")
	require.NoError(t, err)
	assert.Equal(t, "AbCdEf123pump", addr.String())

	lower, err := mintaddr.New(mintaddr.ChainSolana, "abcdef123pump")
	require.NoError(t, err)

	assert.False(t, addr.Equal(lower), "addresses differing only by case must not be equal")
	assert.NotEqual(t, addr.CacheKey(), lower.CacheKey())
}

func TestAddressRejectsEmpty(t *testing.T) {
	_, err := mintaddr.New(mintaddr.ChainSolana, "   ")
	assert.ErrorIs(t, err, mintaddr.ErrEmpty)
}

func TestChainRoundTrip(t *testing.T) {
	cases := []mintaddr.Chain{mintaddr.ChainSolana, mintaddr.ChainEVM(1), mintaddr.ChainEVM(8453)}
	for _, c := range cases {
		parsed, err := mintaddr.ParseChain(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
}

func TestEVMAddressValidation(t *testing.T) {
	_, err := mintaddr.New(mintaddr.ChainEVM(1), "not-an-address")
	assert.ErrorIs(t, err, mintaddr.ErrInvalidEVM)

	addr, err := mintaddr.New(mintaddr.ChainEVM(1), "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	require.NoError(t, err)
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", addr.String())
}
