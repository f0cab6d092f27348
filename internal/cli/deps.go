package cli

import (
	"alertlab/internal/config"
	"alertlab/internal/store/migrate"
	"alertlab/internal/store/relational"
	"alertlab/internal/store/timeseries"
	"alertlab/pkg/artifact"
	"alertlab/pkg/candles"
	"alertlab/pkg/experiment"
	"alertlab/pkg/marketdata"
)

// Deps is the explicit ports struct every command runs against. No
// command reaches a store, client or orchestrator through a
// package-level variable: labctl's main builds exactly one Deps per
// invocation and threads it through Dispatch.
type Deps struct {
	Config       *config.Config
	Relational   *relational.Set
	Timeseries   *timeseries.Store
	MarketClient *marketdata.Client
	Candles      *candles.Provider
	Artifact     *artifact.Store
	Orchestrator *experiment.Orchestrator
	MigrationDir string
	DSN          string
}

// migrateUp/migrateDown are thin wrappers kept here so command bodies
// don't import internal/store/migrate directly; it's the one piece of
// Deps construction commands call into rather than having handed to
// them, since migrations run against the raw DSN, not any of the
// already-open stores.
func migrateUp(deps *Deps) error {
	return migrate.Up(deps.DSN, deps.MigrationDir)
}

func migrateDown(deps *Deps) error {
	return migrate.Down(deps.DSN, deps.MigrationDir)
}
