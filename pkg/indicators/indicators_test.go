package indicators_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"alertlab/pkg/indicators"
)

func TestEMAWarmup(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	out := indicators.EMA(closes, 3)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.False(t, math.IsNaN(out[2]))
	assert.InDelta(t, 2.0, out[2], 1e-9)
}

func TestRSIBounds(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24}
	out := indicators.RSI(closes, 14)
	last := out[len(out)-1]
	assert.False(t, math.IsNaN(last))
	assert.GreaterOrEqual(t, last, 0.0)
	assert.LessOrEqual(t, last, 100.0)
}

func TestRollingStdDevConstantSeriesIsZero(t *testing.T) {
	values := []float64{5, 5, 5, 5, 5}
	out := indicators.RollingStdDev(values, 3)
	assert.InDelta(t, 0, out[4], 1e-9)
}

func TestRollingMinMax(t *testing.T) {
	values := []float64{3, 1, 4, 1, 5, 9, 2}
	mins, maxs := indicators.RollingMinMax(values, 3)
	assert.InDelta(t, 1, mins[4], 1e-9) // window [4,1,5]
	assert.InDelta(t, 5, maxs[4], 1e-9)
}

func TestDrawdownFromPeak(t *testing.T) {
	values := []float64{10, 12, 8, 15, 9}
	out := indicators.DrawdownFromPeak(values)
	assert.InDelta(t, 0, out[1], 1e-9)       // new high at 12
	assert.InDelta(t, -1.0/3, out[2], 1e-9)  // 8 vs peak 12
	assert.InDelta(t, 0, out[3], 1e-9)       // new high at 15
	assert.InDelta(t, -0.4, out[4], 1e-9)    // 9 vs peak 15
}

func TestComputeIchimokuWarmup(t *testing.T) {
	n := 60
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = float64(i) + 1
		lows[i] = float64(i) - 1
	}
	ich := indicators.ComputeIchimoku(highs, lows, 9, 26, 52)
	assert.True(t, math.IsNaN(ich.Tenkan[0]))
	assert.False(t, math.IsNaN(ich.Tenkan[n-1]))
	assert.False(t, math.IsNaN(ich.SenkouB[n-1]))
}
