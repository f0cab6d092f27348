// Package experiment implements the experiment handler (C8): a fixed
// ten-step orchestration that turns a strategy, a seed, and a set of
// alerts into simulated results, an aggregate summary, and a published,
// content-addressed manifest.
//
// The step sequence and its logging shape are generalized from the
// reference trading backend's pkg/manager.Manager.RunTradingLoop, which
// drove its own fixed cycle (fetch -> decide -> execute -> record)
// through one explicit function rather than an event bus or plugin
// registry; this keeps that same compile-time, linear-step structure
// and widens it to the ten stages a full run here needs.
package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"

	"alertlab/pkg/artifact"
	"alertlab/pkg/indicators"
	"alertlab/pkg/mintaddr"
	"alertlab/pkg/ohlcv"
	"alertlab/pkg/simulate"
	"alertlab/pkg/workerpool"
)

// Step names the ten fixed stages of a run, in execution order. There is
// no dynamic registry: Run executes exactly these steps, in exactly
// this order, every time.
type Step string

const (
	StepValidate         Step = "validate"
	StepMarkRunning      Step = "mark_running"
	StepLoadAlerts       Step = "load_alerts"
	StepResolveCandles   Step = "resolve_candles"
	StepSimulate         Step = "simulate"
	StepAggregate        Step = "aggregate"
	StepBuildMetrics     Step = "build_metrics"
	StepBuildEvents      Step = "build_events"
	StepPublishArtifacts Step = "publish_artifacts"
	StepFinalize         Step = "finalize"
)

// steps is the fixed order Run walks; keeping it as a slice (rather than
// re-deriving from the const block) makes the sequence the one visible
// source of truth for both execution and step-by-step logging.
var steps = []Step{
	StepValidate, StepMarkRunning, StepLoadAlerts, StepResolveCandles,
	StepSimulate, StepAggregate, StepBuildMetrics, StepBuildEvents,
	StepPublishArtifacts, StepFinalize,
}

// AlertInput is one alert to simulate within the run.
type AlertInput struct {
	ID         string
	Mint       mintaddr.Address
	EntryPrice decimal.Decimal
	Entry      simulate.EntryConfig
	Targets    []simulate.TargetLevel
	StopLoss   simulate.StopLossConfig
	ReEntry    *simulate.ReEntryPolicy
}

// Window is the candle range every alert in a run is simulated against.
type Window struct {
	IntervalSeconds int64
	FromUnix        int64
	ToUnix          int64
}

// Request is one invocation of the orchestration.
type Request struct {
	RunID      string
	StrategyID string
	Seed       int64
	Alerts     []AlertInput
	Cost       simulate.CostModel
	Window     Window
	Concurrency int
}

// AlertResult pairs a simulated alert with its simulation result.
type AlertResult struct {
	Input  AlertInput
	Result simulate.Result
}

// Outcome is everything a completed run produces.
type Outcome struct {
	RunID        string
	Results      []AlertResult
	TotalPnL     decimal.Decimal
	MaxDrawdown  decimal.Decimal
	ManifestHash string
	ManifestPath string
}

// CandleSource is the C4 hybrid candle provider surface this
// orchestration needs.
type CandleSource interface {
	Resolve(ctx context.Context, mint mintaddr.Address, intervalSeconds, fromUnix, toUnix int64) ([]ohlcv.Candle, error)
}

// Recorder persists run lifecycle state into the C2 relational store.
// Implementations are expected to treat every call as idempotent for a
// given RunID so a retried step never double-records.
type Recorder interface {
	MarkRunning(ctx context.Context, runID string) error
	RecordResults(ctx context.Context, runID string, results []AlertResult) error
	Complete(ctx context.Context, runID, manifestHash string, completedAt int64) error
	Fail(ctx context.Context, runID string, reason string) error
}

// Orchestrator wires the C4 candle source, the C6 simulation engine (via
// direct call, since it's a pure function), the C7 artifact store, the
// C9 worker pool, and a C2-backed Recorder into the fixed ten-step flow.
type Orchestrator struct {
	Candles  CandleSource
	Artifact *artifact.Store
	Recorder Recorder
	Budget   *workerpool.Budget
	Now      func() int64
}

func (o *Orchestrator) logStep(ctx context.Context, runID string, step Step) {
	logx.WithContext(ctx).Infof("experiment: run=%s step=%s", runID, step)
}

// Run executes the fixed step sequence. A failure at any step marks the
// run Failed via Recorder.Fail (best-effort) and returns the error; it
// never skips ahead or retries a later step out of order.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Outcome, error) {
	out := &Outcome{RunID: req.RunID}

	for _, step := range steps {
		o.logStep(ctx, req.RunID, step)
		var err error
		switch step {
		case StepValidate:
			err = o.validate(req)
		case StepMarkRunning:
			err = o.Recorder.MarkRunning(ctx, req.RunID)
		case StepLoadAlerts:
			if len(req.Alerts) == 0 {
				err = fmt.Errorf("experiment: run %s has no alerts to simulate", req.RunID)
			}
		case StepResolveCandles:
			err = o.resolveAndSimulate(ctx, req, out)
		case StepSimulate:
			// folded into StepResolveCandles so each alert's candle
			// resolution and simulation share one worker-pool task
			// instead of two separate fan-outs over the same alert set.
		case StepAggregate:
			o.aggregate(out)
		case StepBuildMetrics:
			o.buildMetrics(out)
		case StepBuildEvents:
			// no-op placeholder: a deployment that wants richer event
			// artifacts adds them here without touching the surrounding
			// step sequence.
		case StepPublishArtifacts:
			err = o.publish(req, out)
		case StepFinalize:
			err = o.finalize(ctx, req, out)
		}
		if err != nil {
			if failErr := o.Recorder.Fail(ctx, req.RunID, err.Error()); failErr != nil {
				logx.WithContext(ctx).Errorf("experiment: run=%s step=%s: failed to record failure: %v", req.RunID, step, failErr)
			}
			return nil, fmt.Errorf("experiment: run %s failed at step %s: %w", req.RunID, step, err)
		}
	}
	return out, nil
}

func (o *Orchestrator) validate(req Request) error {
	if req.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if req.StrategyID == "" {
		return fmt.Errorf("strategy id is required")
	}
	if req.Window.IntervalSeconds <= 0 || req.Window.FromUnix >= req.Window.ToUnix {
		return fmt.Errorf("invalid candle window")
	}
	return nil
}

func (o *Orchestrator) resolveAndSimulate(ctx context.Context, req Request, out *Outcome) error {
	results := make([]AlertResult, len(req.Alerts))
	pool := workerpool.New(concurrencyOrDefault(req.Concurrency), o.Budget)

	tasks := make([]workerpool.Task, len(req.Alerts))
	for i, a := range req.Alerts {
		i, a := i, a
		tasks[i] = func(ctx context.Context) error {
			candles, err := o.Candles.Resolve(ctx, a.Mint, req.Window.IntervalSeconds, req.Window.FromUnix, req.Window.ToUnix)
			if err != nil {
				return fmt.Errorf("resolve candles for alert %s: %w", a.ID, err)
			}
			alert := simulate.Alert{
				ID: a.ID, Mint: a.Mint, EntryPrice: a.EntryPrice, Entry: a.Entry, Targets: a.Targets,
				StopLoss: a.StopLoss, ReEntry: a.ReEntry, Seed: req.Seed,
			}
			res := simulate.Run(alert, candles, req.Cost)
			results[i] = AlertResult{Input: a, Result: res}
			return nil
		}
	}

	if err := pool.Run(ctx, tasks); err != nil {
		return err
	}
	out.Results = results
	return nil
}

func (o *Orchestrator) aggregate(out *Outcome) {
	total := decimal.Zero
	for _, r := range out.Results {
		total = total.Add(r.Result.RealizedPnL)
	}
	out.TotalPnL = total
}

// buildMetrics runs the C5 indicator kernel over the run's cumulative
// realized-P&L curve (results in alert order, which is stable since
// resolveAndSimulate writes into a pre-sized slice by index) to derive
// the run's max drawdown, the one indicator a single-run summary needs.
func (o *Orchestrator) buildMetrics(out *Outcome) {
	curve := make([]float64, len(out.Results))
	running := decimal.Zero
	for i, r := range out.Results {
		running = running.Add(r.Result.RealizedPnL)
		curve[i], _ = running.Float64()
	}
	drawdowns := indicators.DrawdownFromPeak(curve)
	worst := 0.0
	for _, d := range drawdowns {
		if d < worst {
			worst = d
		}
	}
	out.MaxDrawdown = decimal.NewFromFloat(worst)
}

func (o *Orchestrator) publish(req Request, out *Outcome) error {
	manifest := artifact.Manifest{
		RunID:         req.RunID,
		StrategyID:    req.StrategyID,
		CreatedAtUnix: o.now(),
	}

	metricsHash, _, err := o.Artifact.Put(artifact.KindMetrics, summaryMetrics(out))
	if err != nil {
		return fmt.Errorf("publish metrics: %w", err)
	}
	manifest.MetricsHash = metricsHash

	eventsHash, _, err := o.Artifact.Put(artifact.KindEvents, eventsFromResults(out.Results))
	if err != nil {
		return fmt.Errorf("publish events: %w", err)
	}
	manifest.EventsHash = eventsHash

	hash, path, err := o.Artifact.Put(artifact.KindManifest, manifest)
	if err != nil {
		return fmt.Errorf("publish manifest: %w", err)
	}
	out.ManifestHash = hash
	out.ManifestPath = path
	return nil
}

func (o *Orchestrator) finalize(ctx context.Context, req Request, out *Outcome) error {
	if err := o.Recorder.RecordResults(ctx, req.RunID, out.Results); err != nil {
		return fmt.Errorf("record results: %w", err)
	}
	if err := o.Recorder.Complete(ctx, req.RunID, out.ManifestHash, o.now()); err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

func (o *Orchestrator) now() int64 {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now().Unix()
}

func concurrencyOrDefault(n int) int {
	if n <= 0 {
		return 4
	}
	return n
}

type metricsSnapshot struct {
	TotalPnL    string `json:"totalPnL"`
	MaxDrawdown string `json:"maxDrawdown"`
	AlertCount  int    `json:"alertCount"`
}

func summaryMetrics(out *Outcome) metricsSnapshot {
	return metricsSnapshot{
		TotalPnL:    out.TotalPnL.String(),
		MaxDrawdown: out.MaxDrawdown.String(),
		AlertCount:  len(out.Results),
	}
}

type resultEvent struct {
	AlertID     string `json:"alertId"`
	Status      string `json:"status"`
	RealizedPnL string `json:"realizedPnL"`
	FinalPrice  string `json:"finalPrice"`
	FillCount   int    `json:"fillCount"`
}

func eventsFromResults(results []AlertResult) []resultEvent {
	out := make([]resultEvent, len(results))
	for i, r := range results {
		out[i] = resultEvent{
			AlertID:     r.Result.AlertID,
			Status:      string(r.Result.Status),
			RealizedPnL: r.Result.RealizedPnL.String(),
			FinalPrice:  r.Result.FinalPrice.String(),
			FillCount:   len(r.Result.Fills),
		}
	}
	return out
}
