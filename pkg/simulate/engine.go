// Package simulate implements the deterministic per-alert simulation
// engine (C6): given an Alert and the candle history covering its
// window, it replays entry, target, stop, and re-entry logic bar by bar
// and produces a Result with fills, realized P&L, and a final price.
//
// The state machine and fee/slippage handling are generalized from the
// reference trading backend's pkg/backtest.Engine (the step loop, equity
// tracking, and Sharpe computation) and pkg/backtest's signed-position
// portfolio accounting, extended here from "one strategy stream" into a
// ladder of targets/stops with re-entry, since a single alert can re-arm
// after a stop-out.
package simulate

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"alertlab/pkg/mintaddr"
	"alertlab/pkg/ohlcv"
)

// TargetLevel is one take-profit rung: exit ExitFraction of the
// position that was open at entry once price reaches Multiple × the
// actual entry fill price.
type TargetLevel struct {
	Multiple     decimal.Decimal
	ExitFraction decimal.Decimal // 0 < f <= 1, relative to the position size at entry
}

// ReEntryPolicy controls whether and how a position re-arms after being
// stopped out.
type ReEntryPolicy struct {
	MaxReEntries int
	// PriceOffsetBps shifts the re-armed entry price from the original
	// entry by this many basis points (negative means a better price).
	PriceOffsetBps int64
}

// EntryMode selects how an alert's position is opened. The zero value
// ("") is treated as EntryImmediate, so an Alert built without an
// explicit Entry still enters the way the engine always used to.
type EntryMode string

const (
	EntryImmediate       EntryMode = "immediate"
	EntryDrawdownRebound EntryMode = "drawdown_rebound"
)

func (m EntryMode) isDrawdownRebound() bool { return m == EntryDrawdownRebound }

// EntryConfig is strategy.entry. Immediate enters at the alert's
// reference price on the first eligible candle. DrawdownRebound instead
// arms once price has fallen InitialDrawdownPct (negative) from the
// reference price, then enters once price rebounds TrailingReboundPct
// (positive) off the local low reached during the drawdown, bounded by
// MaxWaitMinutes and a RequiredHistoryCandles warm-up before the watch
// may begin.
type EntryConfig struct {
	Mode                   EntryMode
	InitialDrawdownPct     decimal.Decimal
	TrailingReboundPct     decimal.Decimal
	MaxWaitMinutes         int64
	RequiredHistoryCandles int
}

// StopMode selects how the stop-loss price is derived.
type StopMode string

const (
	StopStatic   StopMode = "static"
	StopTrailing StopMode = "trailing"
	StopPhased   StopMode = "phased"
)

// PhaseBoundary switches a phased stop to Pct once the running peak
// (candle highs since entry) reaches PriceMultiple x the entry fill
// price. Boundaries are evaluated in order; the last one crossed wins.
type PhaseBoundary struct {
	PriceMultiple decimal.Decimal
	Pct           decimal.Decimal
}

// StopLossConfig is strategy.stop_loss. Static pins the stop to a fixed
// pct below the entry fill price. Trailing pins it to Pct below the
// running peak of candle highs since entry. Phased behaves like
// trailing but switches Pct as the peak crosses each PhaseBoundary.
type StopLossConfig struct {
	Mode            StopMode
	Pct             decimal.Decimal
	PhaseBoundaries []PhaseBoundary
}

// price derives the current stop price from the entry fill price and
// the running peak of candle highs observed since entry.
func (s StopLossConfig) price(entryPrice, peak decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	switch s.Mode {
	case StopTrailing:
		return peak.Mul(one.Sub(s.Pct))
	case StopPhased:
		pct := s.Pct
		for _, b := range s.PhaseBoundaries {
			if peak.GreaterThanOrEqual(entryPrice.Mul(b.PriceMultiple)) {
				pct = b.Pct
			}
		}
		return peak.Mul(one.Sub(pct))
	default: // StopStatic and unset
		return entryPrice.Mul(one.Sub(s.Pct))
	}
}

// Alert is the simulation engine's view of a trading signal: a
// reference price, an entry policy, a ladder of targets, a stop, and an
// optional re-entry policy.
type Alert struct {
	ID string
	Mint mintaddr.Address
	// EntryPrice is the alert's signal price: the fill price for an
	// immediate entry, and the drawdown baseline for a drawdown/rebound
	// entry.
	EntryPrice decimal.Decimal
	Entry      EntryConfig
	Targets    []TargetLevel
	StopLoss   StopLossConfig
	ReEntry    *ReEntryPolicy
	Seed       int64
}

// CostModel converts a notional fill size into a fee, matching the
// reference backend's bps-based fee calculation in pkg/backtest/portfolio.go.
type CostModel struct {
	FeeBps      int64
	SlippageBps int64
}

func (c CostModel) fee(notional decimal.Decimal) decimal.Decimal {
	if c.FeeBps <= 0 {
		return decimal.Zero
	}
	return notional.Mul(decimal.NewFromInt(c.FeeBps)).Div(decimal.NewFromInt(10000))
}

func (c CostModel) slip(price decimal.Decimal, buy bool) decimal.Decimal {
	if c.SlippageBps <= 0 {
		return price
	}
	adj := price.Mul(decimal.NewFromInt(c.SlippageBps)).Div(decimal.NewFromInt(10000))
	if buy {
		return price.Add(adj)
	}
	return price.Sub(adj)
}

// FillKind distinguishes why a fill happened.
type FillKind string

const (
	FillEntry      FillKind = "entry"
	FillTarget     FillKind = "target"
	FillStop       FillKind = "stop"
	FillReEntry    FillKind = "re_entry"
	FillFinalClose FillKind = "final_close"
)

// Fill records one simulated execution.
type Fill struct {
	Kind      FillKind
	TsUnix    int64
	Price     decimal.Decimal
	Fraction  decimal.Decimal
	Fee       decimal.Decimal
	TargetIdx int // -1 unless Kind == FillTarget
}

// Status is the terminal state of a simulated alert.
type Status string

const (
	StatusFlat        Status = "flat"         // closed out via targets before data ran out
	StatusStoppedOut  Status = "stopped_out"  // stopped and re-entries exhausted
	StatusFinalClosed Status = "final_closed" // still holding a position at data exhaustion; closed at the last candle's close
	StatusNoEntry     Status = "no_entry"     // entry conditions never met (or insufficient warm-up)
)

// Result is the outcome of simulating one alert.
type Result struct {
	AlertID     string
	Fills       []Fill
	RealizedPnL decimal.Decimal
	Status      Status
	// FinalPrice is the actual exit price of the last exit event: the
	// stop price for a stop-out, the last target price for a full
	// target exit, or the last candle's close for a final_close. It is
	// never silently the last candle's close for any other outcome.
	FinalPrice decimal.Decimal
}

type openPosition struct {
	entryPrice      decimal.Decimal
	remaining       decimal.Decimal // fraction of original size still held, 0..1
	reEntryCount    int
	peak            decimal.Decimal // running peak of candle highs since entry
	resolvedTargets []decimal.Decimal
	targetFilled    []bool
}

func openPositionAt(alert Alert, fillPrice decimal.Decimal) *openPosition {
	resolved := make([]decimal.Decimal, len(alert.Targets))
	for i, t := range alert.Targets {
		resolved[i] = fillPrice.Mul(t.Multiple)
	}
	return &openPosition{
		entryPrice:      fillPrice,
		remaining:       decimal.NewFromInt(1),
		peak:            fillPrice,
		resolvedTargets: resolved,
		targetFilled:    make([]bool, len(alert.Targets)),
	}
}

// entryWatcher implements the awaiting_entry state for drawdown/rebound
// strategies: it tracks whether the configured drawdown has occurred
// yet and, once it has, the local low reached since, so a subsequent
// rebound off that low can be detected.
type entryWatcher struct {
	cfg            EntryConfig
	referencePrice decimal.Decimal
	sawDrawdown    bool
	localLow       decimal.Decimal
}

func newEntryWatcher(cfg EntryConfig, referencePrice decimal.Decimal) *entryWatcher {
	return &entryWatcher{cfg: cfg, referencePrice: referencePrice}
}

func (w *entryWatcher) timedOut(candleTs, firstTs int64) bool {
	if w.cfg.MaxWaitMinutes <= 0 {
		return false
	}
	elapsedMinutes := (candleTs - firstTs) / 60
	return elapsedMinutes >= w.cfg.MaxWaitMinutes
}

// evaluate inspects one candle in sequence and reports whether the
// entry condition fires on it, and at what price. i is the candle's
// zero-based index in the full series, used for the warm-up gate.
func (w *entryWatcher) evaluate(i int, cndl ohlcv.Candle) (bool, decimal.Decimal) {
	if i < w.cfg.RequiredHistoryCandles-1 {
		return false, decimal.Zero
	}
	one := decimal.NewFromInt(1)
	if !w.sawDrawdown {
		threshold := w.referencePrice.Mul(one.Add(w.cfg.InitialDrawdownPct))
		if cndl.Low.LessThanOrEqual(threshold) {
			w.sawDrawdown = true
			w.localLow = cndl.Low
		}
		return false, decimal.Zero
	}
	if cndl.Low.LessThan(w.localLow) {
		w.localLow = cndl.Low
	}
	reboundPrice := w.localLow.Mul(one.Add(w.cfg.TrailingReboundPct))
	if cndl.High.GreaterThanOrEqual(reboundPrice) {
		return true, reboundPrice
	}
	return false, decimal.Zero
}

// Run replays candles against alert's entry/target/stop ladder.
// candles must be sorted ascending by TsUnix and cover the alert's full
// decision window; Run does not fetch data itself (that's C4's job).
func Run(alert Alert, candles []ohlcv.Candle, cost CostModel) Result {
	res := Result{AlertID: alert.ID, Status: StatusNoEntry}
	if len(candles) == 0 {
		res.FinalPrice = decimal.Zero
		return res
	}
	if alert.Entry.isDrawdownRebound() && alert.Entry.RequiredHistoryCandles > 0 && len(candles) < alert.Entry.RequiredHistoryCandles {
		// Not enough history to satisfy the drawdown/rebound warm-up even
		// in principle: a single-candle alert with a warm-up of two or
		// more candles always terminates no_entry. Immediate entries have
		// no warm-up.
		res.FinalPrice = decimal.Zero
		return res
	}

	var watcher *entryWatcher
	if alert.Entry.isDrawdownRebound() {
		watcher = newEntryWatcher(alert.Entry, alert.EntryPrice)
	}
	firstTs := candles[0].TsUnix

	var pos *openPosition
	entered := false
	timedOut := false

	for i, cndl := range candles {
		if pos == nil {
			if entered {
				// Closed out (flat or stopped with no re-entry left)
				// before data ran out; the alert never re-enters.
				break
			}
			if timedOut {
				continue
			}
			var ok bool
			var fillPrice decimal.Decimal
			if watcher != nil {
				if watcher.timedOut(cndl.TsUnix, firstTs) {
					timedOut = true
					continue
				}
				ok, fillPrice = watcher.evaluate(i, cndl)
			} else {
				// Immediate: enters unconditionally on the first candle
				// at the alert's reference price.
				ok, fillPrice = i == 0, alert.EntryPrice
			}
			if !ok {
				continue
			}
			fillPrice = cost.slip(fillPrice, true)
			fee := cost.fee(fillPrice)
			res.Fills = append(res.Fills, Fill{Kind: FillEntry, TsUnix: cndl.TsUnix, Price: fillPrice, Fraction: decimal.NewFromInt(1), Fee: fee, TargetIdx: -1})
			res.RealizedPnL = res.RealizedPnL.Sub(fee)
			pos = openPositionAt(alert, fillPrice)
			entered = true
			continue
		}

		if cndl.High.GreaterThan(pos.peak) {
			pos.peak = cndl.High
		}
		stopPrice := alert.StopLoss.price(pos.entryPrice, pos.peak)

		// 1. Stop-loss first (fixed tie-break: a stop in the same candle
		// as a target always wins, since a stop protects capital and a
		// missed target is only foregone upside).
		if cndl.Low.LessThanOrEqual(stopPrice) {
			fillPrice := cost.slip(stopPrice, false)
			fee := cost.fee(fillPrice.Mul(pos.remaining))
			pnl := fillPrice.Sub(pos.entryPrice).Mul(pos.remaining).Sub(fee)
			res.RealizedPnL = res.RealizedPnL.Add(pnl)
			res.Fills = append(res.Fills, Fill{Kind: FillStop, TsUnix: cndl.TsUnix, Price: fillPrice, Fraction: pos.remaining, Fee: fee, TargetIdx: -1})

			if alert.ReEntry != nil && pos.reEntryCount < alert.ReEntry.MaxReEntries {
				reEntryCount := pos.reEntryCount + 1
				rearmed := applyBpsOffset(alert.EntryPrice, alert.ReEntry.PriceOffsetBps)
				reFillPrice := cost.slip(rearmed, true)
				reFee := cost.fee(reFillPrice)
				res.Fills = append(res.Fills, Fill{Kind: FillReEntry, TsUnix: cndl.TsUnix, Price: reFillPrice, Fraction: decimal.NewFromInt(1), Fee: reFee, TargetIdx: -1})
				res.RealizedPnL = res.RealizedPnL.Sub(reFee)
				pos = openPositionAt(alert, reFillPrice)
				pos.reEntryCount = reEntryCount
				continue
			}
			res.Status = StatusStoppedOut
			pos = nil
			continue
		}

		// 2. Targets next, in ladder order; multiple can fill within
		// the same candle.
		for idx := range alert.Targets {
			if pos.targetFilled[idx] {
				continue
			}
			targetPrice := pos.resolvedTargets[idx]
			if cndl.High.LessThan(targetPrice) {
				continue
			}
			pos.targetFilled[idx] = true
			exitFraction := decimal.Min(alert.Targets[idx].ExitFraction, pos.remaining)
			fillPrice := cost.slip(targetPrice, false)
			fee := cost.fee(fillPrice.Mul(exitFraction))
			pnl := fillPrice.Sub(pos.entryPrice).Mul(exitFraction).Sub(fee)
			res.RealizedPnL = res.RealizedPnL.Add(pnl)
			res.Fills = append(res.Fills, Fill{Kind: FillTarget, TsUnix: cndl.TsUnix, Price: fillPrice, Fraction: exitFraction, Fee: fee, TargetIdx: idx})
			pos.remaining = pos.remaining.Sub(exitFraction)
			if pos.remaining.LessThanOrEqual(decimal.Zero) {
				break
			}
		}
		if pos.remaining.LessThanOrEqual(decimal.Zero) {
			res.Status = StatusFlat
			pos = nil
			continue
		}

		// 3. Signal exits last: the strategy config has no signal-exit
		// field of its own, so this step is never applicable here.
	}

	if pos != nil {
		// final_close: any remaining position is closed at the last
		// candle's close, realizing its P&L rather than leaving it an
		// open, unrealized exposure.
		last := candles[len(candles)-1]
		fillPrice := cost.slip(last.Close, false)
		fee := cost.fee(fillPrice.Mul(pos.remaining))
		pnl := fillPrice.Sub(pos.entryPrice).Mul(pos.remaining).Sub(fee)
		res.RealizedPnL = res.RealizedPnL.Add(pnl)
		res.Fills = append(res.Fills, Fill{Kind: FillFinalClose, TsUnix: last.TsUnix, Price: fillPrice, Fraction: pos.remaining, Fee: fee, TargetIdx: -1})
		res.Status = StatusFinalClosed
	}
	// Otherwise pos == nil: either never entered (StatusNoEntry, the
	// zero value) or already closed via a stop/target fill above.

	res.FinalPrice = computeFinalPrice(res.Fills)
	return res
}

// computeFinalPrice is the actual exit price of the last recorded exit
// event: the stop price for a stop-out, the last filled target's price
// for a target-hit exit, or the final_close fill's price (the last
// candle's close) for a position held to the end. An alert that never
// entered has no fills and reports zero.
func computeFinalPrice(fills []Fill) decimal.Decimal {
	if len(fills) == 0 {
		return decimal.Zero
	}
	return fills[len(fills)-1].Price
}

func applyBpsOffset(price decimal.Decimal, bps int64) decimal.Decimal {
	if bps == 0 {
		return price
	}
	adj := price.Mul(decimal.NewFromInt(bps)).Div(decimal.NewFromInt(10000))
	return price.Add(adj)
}

// newDeterministicRNG seeds a PRNG from (seed, alertID) via FNV-1a so a
// seeded execution model (e.g. a future slippage or latency jitter) is
// reproducible per alert independent of map iteration order or
// goroutine scheduling. The current engine has no stochastic fill
// behavior -- stop/target ties resolve stop-first, deterministically --
// so the RNG is unused for now and kept only as the seeding seam an
// execution model would hang off of.
func newDeterministicRNG(seed int64, alertID string) *rand.Rand {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d:%s", seed, alertID)
	return rand.New(rand.NewPCG(h.Sum64(), uint64(seed)))
}
