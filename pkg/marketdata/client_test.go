package marketdata_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertlab/pkg/marketdata"
	"alertlab/pkg/mintaddr"
)

func TestFetchCandlesRetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candles":[{"ts":60,"open":"1.0","high":"1.1","low":"0.9","close":"1.05","volume":"100","trades":5}]}`))
	}))
	defer srv.Close()

	client, err := marketdata.NewClient(marketdata.ProviderConfig{
		Name:         "fixture",
		BaseURL:      srv.URL,
		APIKeys:      []string{"key-a", "key-b"},
		RateLimitRPS: 1000,
	})
	require.NoError(t, err)

	mint, err := mintaddr.New(mintaddr.ChainSolana, "So11111111111111111111111111111111111111112")
	require.NoError(t, err)

	candles, err := client.FetchCandles(context.Background(), mint, 60, 0, 120)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFetchCandlesFastFailsOnAuthError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := marketdata.NewClient(marketdata.ProviderConfig{
		Name:         "fixture",
		BaseURL:      srv.URL,
		APIKeys:      []string{"key-a"},
		RateLimitRPS: 1000,
	})
	require.NoError(t, err)

	mint, err := mintaddr.New(mintaddr.ChainSolana, "So11111111111111111111111111111111111111112")
	require.NoError(t, err)

	_, err = client.FetchCandles(context.Background(), mint, 60, 0, 120)
	require.Error(t, err)
	var fetchErr *marketdata.FetchFailed
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusUnauthorized, fetchErr.StatusCode)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "auth errors must not be retried")
}
