package timeseries_test

import (
	"context"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"alertlab/internal/store/timeseries"
	"alertlab/pkg/mintaddr"
	"alertlab/pkg/ohlcv"
)

// TestS4IdempotentReingest re-upserting the same candle twice must
// leave the store in the same state as upserting it once: the
// append-only store's ON CONFLICT DO UPDATE makes re-ingestion
// idempotent rather than duplicating rows. Requires a live Postgres via
// TEST_DATABASE_DSN; skipped otherwise, matching the reference
// backend's integration test convention.
func TestS4IdempotentReingest(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set; skipping Postgres integration test")
	}

	conn := sqlx.NewSqlConn("pgx", dsn)
	store := timeseries.NewStore(conn)

	chain := mintaddr.ChainSolana
	mint, err := mintaddr.New(chain, "IdempotentTestMint")
	require.NoError(t, err)

	candle := ohlcv.Candle{
		Chain: chain, Mint: mint, IntervalSeconds: 60, TsUnix: 1700000000,
		Open: decimal.NewFromFloat(1.0), High: decimal.NewFromFloat(1.1),
		Low: decimal.NewFromFloat(0.9), Close: decimal.NewFromFloat(1.05),
		Volume: decimal.NewFromInt(100), TradeCount: 5,
	}

	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, []ohlcv.Candle{candle}))
	require.NoError(t, store.Upsert(ctx, []ohlcv.Candle{candle}))

	rows, err := store.GetRange(ctx, chain, mint, 60, 1699999999, 1700000001)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, mint.String(), rows[0].Mint.String())
}
