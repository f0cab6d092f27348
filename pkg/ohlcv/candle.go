// Package ohlcv defines the Candle type shared by the external
// market-data client (C3), the time-series store (C1), and the hybrid
// candle provider (C4), so none of those packages has to import another
// of them just for a struct definition.
package ohlcv

import (
	"github.com/shopspring/decimal"

	"alertlab/pkg/mintaddr"
)

// Candle is one OHLCV bar for a mint at a fixed interval.
type Candle struct {
	Chain           mintaddr.Chain
	Mint            mintaddr.Address
	IntervalSeconds int64
	TsUnix          int64
	Open            decimal.Decimal
	High            decimal.Decimal
	Low             decimal.Decimal
	Close           decimal.Decimal
	Volume          decimal.Decimal
	TradeCount      int64
}

// Key identifies the row this candle occupies in the time-series store,
// per the (chain, token_address, interval_seconds, ts) primary key.
func (c Candle) Key() string {
	return c.Chain.String() + ":" + c.Mint.String() + ":" + itoa(c.IntervalSeconds) + ":" + itoa(c.TsUnix)
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
