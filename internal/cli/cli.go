// Package cli is the compile-time command dispatch table labctl runs
// against. There is no dynamic command registry: every Command is
// listed in Commands below, and Dispatch does a linear lookup by name.
// Adding a command means adding an entry to this file, the same way the
// reference backend's cmd/cron and cmd/llm each hard-wired their own
// fixed set of monitored operations rather than discovering them at
// runtime.
package cli

import (
	"context"
	"fmt"
)

// Command is one labctl subcommand.
type Command struct {
	Name        string
	Summary     string
	Run         func(ctx context.Context, deps *Deps, args []string) error
}

// Commands is the fixed dispatch table. labctl registers them in this
// order; cobra's help output lists them sorted by name.
var Commands = []Command{
	{Name: "experiment.run", Summary: "run a simulation experiment for a strategy", Run: runExperimentRun},
	{Name: "experiment.replay", Summary: "print a prior run's strategy id and seed (does not re-run it)", Run: runExperimentReplay},
	{Name: "experiment.list", Summary: "list recent simulation runs for a strategy", Run: runExperimentList},
	{Name: "experiment.show", Summary: "show one simulation run's summary and manifest hash", Run: runExperimentShow},
	{Name: "experiment.leaderboard", Summary: "aggregate realized P&L across strategies", Run: runExperimentLeaderboard},
	{Name: "ingest.ohlcv", Summary: "backfill OHLCV candles for a mint over a time range", Run: runIngestOHLCV},
	{Name: "ingest.telegram", Summary: "idempotently record one caller-channel alert", Run: runIngestTelegram},
	{Name: "migrate.up", Summary: "apply pending database migrations", Run: runMigrateUp},
	{Name: "migrate.down", Summary: "roll back database migrations", Run: runMigrateDown},
}

// Lookup returns the Command named name, or false if it isn't registered.
func Lookup(name string) (Command, bool) {
	for _, c := range Commands {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}

// Dispatch runs the named command against deps, or returns an error
// naming the unknown command if name isn't registered.
func Dispatch(ctx context.Context, deps *Deps, name string, args []string) error {
	cmd, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("cli: unknown command %q (run with no arguments to list commands)", name)
	}
	return cmd.Run(ctx, deps, args)
}
