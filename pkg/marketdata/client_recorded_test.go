package marketdata_test

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/dnaeon/go-vcr/cassette"
	"github.com/dnaeon/go-vcr/recorder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertlab/pkg/marketdata"
	"alertlab/pkg/mintaddr"
)

const cassetteName = "testdata/fetch_candles"

// TestFetchCandlesRecorded replays a cassette recorded against a real
// provider so CI never opens a socket. Set RECORD_CASSETTES=1 against a
// live endpoint to refresh the cassette.
func TestFetchCandlesRecorded(t *testing.T) {
	mode := recorder.ModeReplaying
	if os.Getenv("RECORD_CASSETTES") == "1" {
		mode = recorder.ModeRecording
	} else if _, err := os.Stat(cassetteName + ".yaml"); err != nil {
		t.Skip("cassette not present; set RECORD_CASSETTES=1 to record one")
	}

	rec, err := recorder.NewAsMode(cassetteName, mode, http.DefaultTransport)
	require.NoError(t, err)
	defer rec.Stop()
	rec.SetMatcher(func(r *http.Request, i cassette.Request) bool {
		return r.Method == i.Method && r.URL.String() == i.URL
	})

	client, err := marketdata.NewClient(marketdata.ProviderConfig{
		Name:    "fixture",
		BaseURL: "https://example-marketdata.test",
		APIKeys: []string{"test-key"},
	}, marketdata.WithHTTPClient(&http.Client{Transport: rec}))
	require.NoError(t, err)

	mint, err := mintaddr.New(mintaddr.ChainSolana, "So11111111111111111111111111111111111111112")
	require.NoError(t, err)

	candles, err := client.FetchCandles(context.Background(), mint, 60, 0, 3600)
	require.NoError(t, err)
	assert.NotNil(t, candles)
}
