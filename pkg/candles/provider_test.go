package candles_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertlab/pkg/candles"
	"alertlab/pkg/mintaddr"
	"alertlab/pkg/ohlcv"
)

type memStore struct {
	rows []ohlcv.Candle
}

func (m *memStore) GetRange(ctx context.Context, chain mintaddr.Chain, mint mintaddr.Address, intervalSeconds, fromUnix, toUnix int64) ([]ohlcv.Candle, error) {
	var out []ohlcv.Candle
	for _, c := range m.rows {
		if c.TsUnix >= fromUnix && c.TsUnix < toUnix {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) Upsert(ctx context.Context, candles []ohlcv.Candle) error {
	m.rows = append(m.rows, candles...)
	return nil
}

type stubFetcher struct {
	calls   int
	candles []ohlcv.Candle
}

func (f *stubFetcher) FetchCandles(ctx context.Context, mint mintaddr.Address, intervalSeconds, fromUnix, toUnix int64) ([]ohlcv.Candle, error) {
	f.calls++
	var out []ohlcv.Candle
	for _, c := range f.candles {
		if c.TsUnix >= fromUnix && c.TsUnix < toUnix {
			out = append(out, c)
		}
	}
	return out, nil
}

func mkCandle(ts int64) ohlcv.Candle {
	return ohlcv.Candle{TsUnix: ts, Open: decimal.NewFromInt(1), High: decimal.NewFromInt(1), Low: decimal.NewFromInt(1), Close: decimal.NewFromInt(1)}
}

func TestResolveFetchesOnlyTheGap(t *testing.T) {
	mint, err := mintaddr.New(mintaddr.ChainSolana, "MintAbc")
	require.NoError(t, err)

	store := &memStore{rows: []ohlcv.Candle{mkCandle(0), mkCandle(60)}}
	fetcher := &stubFetcher{candles: []ohlcv.Candle{mkCandle(120), mkCandle(180)}}

	provider, err := candles.New(store, fetcher, 0)
	require.NoError(t, err)

	result, err := provider.Resolve(context.Background(), mint, 60, 0, 240)
	require.NoError(t, err)
	require.Len(t, result, 4)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, []int64{0, 60, 120, 180}, tsOf(result))
}

func TestFindGapsSetDifference(t *testing.T) {
	existing := []ohlcv.Candle{mkCandle(0), mkCandle(120)}
	gaps := candles.FindGaps(existing, 60, 0, 240)
	require.Len(t, gaps, 2)
	assert.Equal(t, candles.Gap{FromUnix: 60, ToUnix: 120}, gaps[0])
	assert.Equal(t, candles.Gap{FromUnix: 180, ToUnix: 240}, gaps[1])
}

func TestDedupKeepsLastWriteWins(t *testing.T) {
	first := mkCandle(60)
	second := mkCandle(60)
	second.Close = decimal.NewFromInt(2)
	out := candles.Dedup([]ohlcv.Candle{first, second})
	require.Len(t, out, 1)
	assert.True(t, out[0].Close.Equal(decimal.NewFromInt(2)))
}

func tsOf(candles []ohlcv.Candle) []int64 {
	out := make([]int64, len(candles))
	for i, c := range candles {
		out[i] = c.TsUnix
	}
	return out
}
