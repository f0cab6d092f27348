// Package indicators implements the pure, deterministic indicator kernel
// (C5): moving averages, oscillators, and rolling statistics over a
// price series. Every function is a pure function of its input slice —
// this package imports nothing beyond math, so these functions stay
// trivially unit-testable and reusable from any caller, such as the
// experiment handler's metrics step.
package indicators

import "math"

// NaN marks an output index as not-yet-defined because the series
// hasn't accumulated enough history for the indicator's warm-up window.
var NaN = math.NaN()

func isUndefined(v float64) bool { return math.IsNaN(v) }

// EMA computes the exponential moving average over closes with the
// given period. The first period-1 values are NaN.
func EMA(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	if period <= 0 || len(closes) == 0 {
		for i := range out {
			out[i] = NaN
		}
		return out
	}
	k := 2.0 / float64(period+1)
	var sum float64
	for i, c := range closes {
		if i < period-1 {
			out[i] = NaN
			sum += c
			continue
		}
		if i == period-1 {
			sum += c
			out[i] = sum / float64(period)
			continue
		}
		out[i] = c*k + out[i-1]*(1-k)
	}
	return out
}

// MACD returns the MACD line, signal line, and histogram using the
// standard 12/26/9 periods unless overridden.
func MACD(closes []float64, fast, slow, signal int) (macd, signalLine, hist []float64) {
	if fast <= 0 {
		fast = 12
	}
	if slow <= 0 {
		slow = 26
	}
	if signal <= 0 {
		signal = 9
	}
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)
	macd = make([]float64, len(closes))
	for i := range closes {
		if isUndefined(fastEMA[i]) || isUndefined(slowEMA[i]) {
			macd[i] = NaN
			continue
		}
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine = EMA(macd, signal)
	hist = make([]float64, len(closes))
	for i := range closes {
		if isUndefined(macd[i]) || isUndefined(signalLine[i]) {
			hist[i] = NaN
			continue
		}
		hist[i] = macd[i] - signalLine[i]
	}
	return macd, signalLine, hist
}

// RSI computes the relative strength index over the given period.
func RSI(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	if period <= 0 || len(closes) <= period {
		for i := range out {
			out[i] = NaN
		}
		return out
	}
	return computeRSI(closes, period, out)
}

func computeRSI(closes []float64, period int, out []float64) []float64 {
	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum += -delta
		}
		out[i-1] = NaN
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	out[period] = rsiFromAverages(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// ATR computes the average true range over highs/lows/closes.
func ATR(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := make([]float64, n)
	if period <= 0 || n == 0 {
		for i := range out {
			out[i] = NaN
		}
		return out
	}
	trueRanges := make([]float64, n)
	for i := 0; i < n; i++ {
		if i == 0 {
			trueRanges[i] = highs[i] - lows[i]
			continue
		}
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		trueRanges[i] = math.Max(hl, math.Max(hc, lc))
	}
	return EMA(trueRanges, period)
}

// RollingStdDev computes the population standard deviation over a
// trailing window of the given size.
func RollingStdDev(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		for i := range out {
			out[i] = NaN
		}
		return out
	}
	for i := range values {
		if i < window-1 {
			out[i] = NaN
			continue
		}
		slice := values[i-window+1 : i+1]
		mean := 0.0
		for _, v := range slice {
			mean += v
		}
		mean /= float64(window)
		var variance float64
		for _, v := range slice {
			d := v - mean
			variance += d * d
		}
		variance /= float64(window)
		out[i] = math.Sqrt(variance)
	}
	return out
}

// RollingMinMax returns the trailing min and max over the given window.
func RollingMinMax(values []float64, window int) (mins, maxs []float64) {
	n := len(values)
	mins = make([]float64, n)
	maxs = make([]float64, n)
	if window <= 0 {
		for i := range values {
			mins[i] = NaN
			maxs[i] = NaN
		}
		return mins, maxs
	}
	for i := range values {
		if i < window-1 {
			mins[i] = NaN
			maxs[i] = NaN
			continue
		}
		lo, hi := values[i], values[i]
		for _, v := range values[i-window+1 : i+1] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		mins[i] = lo
		maxs[i] = hi
	}
	return mins, maxs
}

// DrawdownFromPeak returns, at each index, the fractional drop from the
// running maximum seen so far (0 at a new high, negative otherwise).
func DrawdownFromPeak(values []float64) []float64 {
	out := make([]float64, len(values))
	peak := math.Inf(-1)
	for i, v := range values {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			out[i] = 0
			continue
		}
		out[i] = (v - peak) / peak
	}
	return out
}

// Ichimoku holds the four classic Ichimoku Kinko Hyo lines. SenkouA/B are
// shifted forward by `displacement` in typical usage; this function
// returns the unshifted values and leaves shifting to the caller, since
// shifting is a presentation concern, not a math one.
type Ichimoku struct {
	Tenkan  []float64
	Kijun   []float64
	SenkouA []float64
	SenkouB []float64
}

// ComputeIchimoku computes tenkan-sen (conversion, default 9), kijun-sen
// (base, default 26), and the two senkou spans (default 26/52 periods)
// from highs/lows.
func ComputeIchimoku(highs, lows []float64, tenkanPeriod, kijunPeriod, senkouBPeriod int) Ichimoku {
	if tenkanPeriod <= 0 {
		tenkanPeriod = 9
	}
	if kijunPeriod <= 0 {
		kijunPeriod = 26
	}
	if senkouBPeriod <= 0 {
		senkouBPeriod = 52
	}
	n := len(highs)
	tenkan := midpointSeries(highs, lows, tenkanPeriod, n)
	kijun := midpointSeries(highs, lows, kijunPeriod, n)
	senkouB := midpointSeries(highs, lows, senkouBPeriod, n)

	senkouA := make([]float64, n)
	for i := 0; i < n; i++ {
		if isUndefined(tenkan[i]) || isUndefined(kijun[i]) {
			senkouA[i] = NaN
			continue
		}
		senkouA[i] = (tenkan[i] + kijun[i]) / 2
	}

	return Ichimoku{Tenkan: tenkan, Kijun: kijun, SenkouA: senkouA, SenkouB: senkouB}
}

func midpointSeries(highs, lows []float64, window, n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if i < window-1 {
			out[i] = NaN
			continue
		}
		hi, lo := highs[i], lows[i]
		for j := i - window + 1; j <= i; j++ {
			if highs[j] > hi {
				hi = highs[j]
			}
			if lows[j] < lo {
				lo = lows[j]
			}
		}
		out[i] = (hi + lo) / 2
	}
	return out
}
