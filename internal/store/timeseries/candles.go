// Package timeseries is the append-only OHLCV time-series store (C1),
// backed by Postgres through go-zero's sqlx.SqlConn and the jackc/pgx/v5
// driver. Writes use a single multi-row INSERT ... ON CONFLICT DO UPDATE
// so the last arrival for a given (chain, token_address,
// interval_seconds, ts) always wins, matching the reference trading
// backend's native-upsert style in internal/persistence/engine
// (RecordAnalytics's raw ON CONFLICT SQL), generalized from one row at a
// time to a batched multi-row statement for ingestion throughput.
package timeseries

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"alertlab/pkg/mintaddr"
	"alertlab/pkg/ohlcv"
)

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

const candlesTable = "ohlcv_candles"

// Store implements pkg/candles.Store against Postgres.
type Store struct {
	conn sqlx.SqlConn
}

// NewStore wraps an existing sqlx.SqlConn (constructed by the caller
// with sqlx.NewSqlConn("pgx", dsn), matching the reference backend's
// internal/svc wiring convention).
func NewStore(conn sqlx.SqlConn) *Store {
	return &Store{conn: conn}
}

// Upsert writes candles in one batched statement, last-arrival-wins on
// conflict. Callers typically batch a single fetch's worth of rows; an
// empty slice is a no-op.
func (s *Store) Upsert(ctx context.Context, candles []ohlcv.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO ` + candlesTable + ` (chain, token_address, interval_seconds, ts, open, high, low, close, volume, trade_count) VALUES `)
	args := make([]any, 0, len(candles)*10)
	for i, c := range candles {
		if i > 0 {
			sb.WriteString(",")
		}
		base := i * 10
		fmt.Fprintf(&sb, "($%d,$%d,$%d,to_timestamp($%d),$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10)
		args = append(args,
			c.Chain.String(),
			c.Mint.String(),
			c.IntervalSeconds,
			c.TsUnix,
			c.Open.String(),
			c.High.String(),
			c.Low.String(),
			c.Close.String(),
			c.Volume.String(),
			c.TradeCount,
		)
	}
	sb.WriteString(` ON CONFLICT (chain, token_address, interval_seconds, ts) DO UPDATE SET
		open = EXCLUDED.open,
		high = EXCLUDED.high,
		low = EXCLUDED.low,
		close = EXCLUDED.close,
		volume = EXCLUDED.volume,
		trade_count = EXCLUDED.trade_count`)

	_, err := s.conn.ExecCtx(ctx, sb.String(), args...)
	if err != nil {
		return fmt.Errorf("timeseries: upsert %d candles: %w", len(candles), err)
	}
	return nil
}

// GetRange reads candles for mint at intervalSeconds within
// [fromUnix, toUnix), ordered ascending by timestamp. Mint case is
// preserved verbatim: the query binds token_address as-is, with no
// lower()/upper() folding anywhere in the statement.
func (s *Store) GetRange(ctx context.Context, chain mintaddr.Chain, mint mintaddr.Address, intervalSeconds, fromUnix, toUnix int64) ([]ohlcv.Candle, error) {
	const query = `SELECT extract(epoch from ts)::bigint, open, high, low, close, volume, trade_count
		FROM ` + candlesTable + `
		WHERE chain = $1 AND token_address = $2 AND interval_seconds = $3
		  AND ts >= to_timestamp($4) AND ts < to_timestamp($5)
		ORDER BY ts ASC`

	var rows []struct {
		Ts         int64  `db:"ts"`
		Open       string `db:"open"`
		High       string `db:"high"`
		Low        string `db:"low"`
		Close      string `db:"close"`
		Volume     string `db:"volume"`
		TradeCount int64  `db:"trade_count"`
	}
	if err := s.conn.QueryRowsPartialCtx(ctx, &rows, query, chain.String(), mint.String(), intervalSeconds, fromUnix, toUnix); err != nil {
		return nil, fmt.Errorf("timeseries: query range: %w", err)
	}

	out := make([]ohlcv.Candle, 0, len(rows))
	for _, r := range rows {
		c := ohlcv.Candle{
			Chain:           chain,
			Mint:            mint,
			IntervalSeconds: intervalSeconds,
			TsUnix:          r.Ts,
			TradeCount:      r.TradeCount,
		}
		c.Open = mustDecimal(r.Open)
		c.High = mustDecimal(r.High)
		c.Low = mustDecimal(r.Low)
		c.Close = mustDecimal(r.Close)
		c.Volume = mustDecimal(r.Volume)
		out = append(out, c)
	}
	return out, nil
}

// CompactDuplicates is an offline maintenance job that collapses any
// duplicate (chain, token_address, interval_seconds, ts) rows a backfill
// may have left behind ahead of the online upsert path enforcing
// uniqueness going forward.
func (s *Store) CompactDuplicates(ctx context.Context, chain mintaddr.Chain, mint mintaddr.Address, intervalSeconds int64) error {
	const query = `DELETE FROM ` + candlesTable + ` a USING ` + candlesTable + ` b
		WHERE a.chain = $1 AND a.token_address = $2 AND a.interval_seconds = $3
		  AND a.chain = b.chain AND a.token_address = b.token_address
		  AND a.interval_seconds = b.interval_seconds AND a.ts = b.ts
		  AND a.ctid < b.ctid`
	_, err := s.conn.ExecCtx(ctx, query, chain.String(), mint.String(), intervalSeconds)
	if err != nil {
		return fmt.Errorf("timeseries: compact duplicates: %w", err)
	}
	return nil
}
