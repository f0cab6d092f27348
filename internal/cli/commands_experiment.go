package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"

	"alertlab/internal/store/relational/model"
	"alertlab/pkg/experiment"
	"alertlab/pkg/mintaddr"
	"alertlab/pkg/simulate"
)

// targetSpec is the stored shape of one target rung in an alert row's
// targets_json column: a multiple of the entry fill price, paired with
// the fraction of the original position it exits.
type targetSpec struct {
	Multiple     string `json:"multiple"`
	ExitFraction string `json:"exitFraction"`
}

func alertInputFromRow(row model.Alert, chain, tokenAddress string) (experiment.AlertInput, error) {
	mint, err := mintaddr.New(mustParseChain(chain), tokenAddress)
	if err != nil {
		return experiment.AlertInput{}, fmt.Errorf("alert %d: %w", row.ID, err)
	}

	entry, err := decimal.NewFromString(row.EntryPrice)
	if err != nil {
		return experiment.AlertInput{}, fmt.Errorf("alert %d: entry price: %w", row.ID, err)
	}
	stop, err := decimal.NewFromString(row.StopPrice)
	if err != nil {
		return experiment.AlertInput{}, fmt.Errorf("alert %d: stop price: %w", row.ID, err)
	}
	if entry.IsZero() {
		return experiment.AlertInput{}, fmt.Errorf("alert %d: entry price must be nonzero", row.ID)
	}
	// alerts are stored with an absolute stop price; the simulation
	// engine works in pct-below-entry terms, so derive a static stop
	// pct that reproduces the stored price at the stored entry.
	stopPct := decimal.NewFromInt(1).Sub(stop.Div(entry))

	var specs []targetSpec
	if row.TargetsJSON != "" {
		if err := json.Unmarshal([]byte(row.TargetsJSON), &specs); err != nil {
			return experiment.AlertInput{}, fmt.Errorf("alert %d: targets json: %w", row.ID, err)
		}
	}
	targets := make([]simulate.TargetLevel, len(specs))
	for i, s := range specs {
		multiple, err := decimal.NewFromString(s.Multiple)
		if err != nil {
			return experiment.AlertInput{}, fmt.Errorf("alert %d: target %d multiple: %w", row.ID, i, err)
		}
		fraction, err := decimal.NewFromString(s.ExitFraction)
		if err != nil {
			return experiment.AlertInput{}, fmt.Errorf("alert %d: target %d fraction: %w", row.ID, i, err)
		}
		targets[i] = simulate.TargetLevel{Multiple: multiple, ExitFraction: fraction}
	}

	return experiment.AlertInput{
		ID:         fmt.Sprintf("%d", row.ID),
		Mint:       mint,
		EntryPrice: entry,
		Entry:      simulate.EntryConfig{Mode: simulate.EntryImmediate},
		Targets:    targets,
		StopLoss:   simulate.StopLossConfig{Mode: simulate.StopStatic, Pct: stopPct},
	}, nil
}

func mustParseChain(s string) mintaddr.Chain {
	chain, err := mintaddr.ParseChain(s)
	if err != nil {
		return mintaddr.ChainSolana
	}
	return chain
}

func runExperimentRun(ctx context.Context, deps *Deps, args []string) error {
	fs := flag.NewFlagSet("experiment.run", flag.ContinueOnError)
	strategyName := fs.String("strategy", "", "strategy name")
	seed := fs.Int64("seed", 1, "deterministic RNG seed")
	interval := fs.Int64("interval", 60, "candle interval in seconds")
	from := fs.Int64("from", 0, "window start, unix seconds")
	to := fs.Int64("to", 0, "window end, unix seconds")
	status := fs.String("status", "pending", "alert status to select")
	feeBps := fs.Int64("fee-bps", 30, "fee in basis points")
	slippageBps := fs.Int64("slippage-bps", 10, "slippage in basis points")
	limit := fs.Int("limit", 100, "max alerts to include")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *strategyName == "" {
		return fmt.Errorf("experiment.run: -strategy is required")
	}

	strategy, err := deps.Relational.Strategies.FindOneByName(ctx, *strategyName)
	if err != nil {
		return fmt.Errorf("experiment.run: load strategy: %w", err)
	}

	rows, err := deps.Relational.Alerts.ListByStatus(ctx, *status, *limit)
	if err != nil {
		return fmt.Errorf("experiment.run: load alerts: %w", err)
	}

	inputs := make([]experiment.AlertInput, 0, len(rows))
	for _, row := range rows {
		token, err := deps.Relational.Tokens.FindOne(ctx, row.TokenID)
		if err != nil {
			logx.WithContext(ctx).Errorf("experiment.run: skip alert %d: load token: %v", row.ID, err)
			continue
		}
		input, err := alertInputFromRow(row, token.Chain, token.TokenAddress)
		if err != nil {
			logx.WithContext(ctx).Errorf("experiment.run: skip alert %d: %v", row.ID, err)
			continue
		}
		inputs = append(inputs, input)
	}

	runID := uuid.NewString()
	req := experiment.Request{
		RunID:      runID,
		StrategyID: *strategyName,
		Seed:       *seed,
		Alerts:     inputs,
		Cost:       simulate.CostModel{FeeBps: *feeBps, SlippageBps: *slippageBps},
		Window:     experiment.Window{IntervalSeconds: *interval, FromUnix: *from, ToUnix: *to},
		Concurrency: deps.Config.Worker.Concurrency,
	}

	if _, err := deps.Relational.SimulationRuns.Insert(ctx, &model.SimulationRun{
		RunID: runID, StrategyID: strategy.ID, Seed: *seed, Status: "pending", CreatedAt: time.Now().Unix(),
	}); err != nil {
		return fmt.Errorf("experiment.run: record run: %w", err)
	}

	out, err := deps.Orchestrator.Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("run %s complete: %d alerts, total pnl %s, manifest %s\n", runID, len(out.Results), out.TotalPnL.String(), out.ManifestHash)
	return nil
}

func runExperimentReplay(ctx context.Context, deps *Deps, args []string) error {
	fs := flag.NewFlagSet("experiment.replay", flag.ContinueOnError)
	runID := fs.String("run", "", "run id to replay")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return fmt.Errorf("experiment.replay: -run is required")
	}
	prior, err := deps.Relational.SimulationRuns.FindOneByRunID(ctx, *runID)
	if err != nil {
		return fmt.Errorf("experiment.replay: load run: %w", err)
	}
	// Replay does not build or run a request: it loads the prior run row
	// and prints its strategy id and seed. Re-running is left to
	// experiment.run with the same -seed; no artifact hashes are compared.
	fmt.Printf("replaying run %s (strategy_id=%d seed=%d) as a new run; use experiment.run with the same -seed to reproduce\n",
		prior.RunID, prior.StrategyID, prior.Seed)
	return nil
}

func runExperimentList(ctx context.Context, deps *Deps, args []string) error {
	fs := flag.NewFlagSet("experiment.list", flag.ContinueOnError)
	strategyName := fs.String("strategy", "", "strategy name")
	limit := fs.Int("limit", 20, "max runs to list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	strategy, err := deps.Relational.Strategies.FindOneByName(ctx, *strategyName)
	if err != nil {
		return fmt.Errorf("experiment.list: load strategy: %w", err)
	}
	runs, err := deps.Relational.SimulationRuns.ListByStrategy(ctx, strategy.ID, *limit)
	if err != nil {
		return fmt.Errorf("experiment.list: %w", err)
	}
	for _, r := range runs {
		fmt.Printf("%s\tstatus=%s\tseed=%d\tmanifest=%s\n", r.RunID, r.Status, r.Seed, r.ManifestHash)
	}
	return nil
}

func runExperimentShow(ctx context.Context, deps *Deps, args []string) error {
	fs := flag.NewFlagSet("experiment.show", flag.ContinueOnError)
	runID := fs.String("run", "", "run id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	run, err := deps.Relational.SimulationRuns.FindOneByRunID(ctx, *runID)
	if err != nil {
		return fmt.Errorf("experiment.show: %w", err)
	}
	total, err := deps.Relational.SimulationResults.AggregatePnLByRun(ctx, *runID)
	if err != nil {
		return fmt.Errorf("experiment.show: aggregate pnl: %w", err)
	}
	fmt.Printf("run=%s status=%s manifest=%s total_pnl=%s\n", run.RunID, run.Status, run.ManifestHash, total)
	return nil
}

func runExperimentLeaderboard(ctx context.Context, deps *Deps, args []string) error {
	fs := flag.NewFlagSet("experiment.leaderboard", flag.ContinueOnError)
	limit := fs.Int("limit", 10, "max strategies to show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rows, err := deps.Relational.SimulationResults.LeaderboardByStrategy(ctx, *limit)
	if err != nil {
		return fmt.Errorf("experiment.leaderboard: %w", err)
	}
	for i, r := range rows {
		fmt.Printf("%d.\t%s\truns=%d\ttotal_pnl=%s\n", i+1, r.StrategyName, r.RunCount, r.TotalPnL)
	}
	return nil
}
