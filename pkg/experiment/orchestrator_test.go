package experiment_test

import (
	"context"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertlab/pkg/artifact"
	"alertlab/pkg/experiment"
	"alertlab/pkg/mintaddr"
	"alertlab/pkg/ohlcv"
	"alertlab/pkg/simulate"
)

type stubCandleSource struct {
	candles []ohlcv.Candle
}

func (s *stubCandleSource) Resolve(ctx context.Context, mint mintaddr.Address, intervalSeconds, fromUnix, toUnix int64) ([]ohlcv.Candle, error) {
	return s.candles, nil
}

type recordingRecorder struct {
	running   []string
	recorded  map[string]int
	completed []string
	failed    []string
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{recorded: map[string]int{}}
}

func (r *recordingRecorder) MarkRunning(ctx context.Context, runID string) error {
	r.running = append(r.running, runID)
	return nil
}

func (r *recordingRecorder) RecordResults(ctx context.Context, runID string, results []experiment.AlertResult) error {
	r.recorded[runID] = len(results)
	return nil
}

func (r *recordingRecorder) Complete(ctx context.Context, runID, manifestHash string, completedAt int64) error {
	r.completed = append(r.completed, runID)
	return nil
}

func (r *recordingRecorder) Fail(ctx context.Context, runID string, reason string) error {
	r.failed = append(r.failed, runID)
	return nil
}

func testCandle(ts int64, price float64) ohlcv.Candle {
	d := decimal.NewFromFloat(price)
	return ohlcv.Candle{TsUnix: ts, Open: d, High: d, Low: d, Close: d, Volume: decimal.Zero}
}

func TestOrchestratorRunsAllTenStepsAndPublishes(t *testing.T) {
	dir := t.TempDir()
	store, err := artifact.NewStore(dir)
	require.NoError(t, err)

	mint, err := mintaddr.New(mintaddr.ChainSolana, "ExperimentTestMint")
	require.NoError(t, err)

	recorder := newRecordingRecorder()
	orch := &experiment.Orchestrator{
		Candles:  &stubCandleSource{candles: []ohlcv.Candle{testCandle(0, 1.0), testCandle(60, 1.2)}},
		Artifact: store,
		Recorder: recorder,
		Now:      func() int64 { return 1700000000 },
	}

	req := experiment.Request{
		RunID:      "run-1",
		StrategyID: "strategy-1",
		Seed:       42,
		Window:     experiment.Window{IntervalSeconds: 60, FromUnix: 0, ToUnix: 120},
		Alerts: []experiment.AlertInput{
			{
				ID: "alert-1", Mint: mint, EntryPrice: decimal.NewFromFloat(1.0),
				StopLoss: simulate.StopLossConfig{Mode: simulate.StopStatic, Pct: decimal.NewFromFloat(0.5)},
			},
		},
	}

	out, err := orch.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, out.Results, 1)
	assert.NotEmpty(t, out.ManifestHash)
	assert.Equal(t, []string{"run-1"}, recorder.running)
	assert.Equal(t, []string{"run-1"}, recorder.completed)
	assert.Equal(t, 1, recorder.recorded["run-1"])
	assert.Empty(t, recorder.failed)

	_, statErr := os.Stat(out.ManifestPath)
	require.NoError(t, statErr)
}

func TestOrchestratorFailsValidationBeforeMarkingRunning(t *testing.T) {
	recorder := newRecordingRecorder()
	orch := &experiment.Orchestrator{Recorder: recorder}

	_, err := orch.Run(context.Background(), experiment.Request{})
	require.Error(t, err)
	assert.Empty(t, recorder.running)
	assert.Equal(t, []string{""}, recorder.failed)
}
