// Package relational is the OLTP store (C2): tokens, callers, alerts,
// strategies, simulation runs and their per-alert result summaries. It
// mirrors the reference backend's internal/repo.New(deps) aggregator —
// one constructor wiring every table's model against a shared
// sqlx.SqlConn and cache.CacheConf, handed out as a single Set the rest
// of the application depends on instead of importing model directly.
package relational

import (
	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"alertlab/internal/store/relational/model"
)

// Set bundles every relational model behind one dependency.
type Set struct {
	Tokens            model.TokensModel
	Callers           model.CallersModel
	Alerts            model.AlertsModel
	Strategies        model.StrategiesModel
	SimulationRuns    model.SimulationRunsModel
	SimulationResults model.SimulationResultsModel
}

// New builds a Set from a live connection and cache config. An empty
// cache.CacheConf disables caching at the model layer; callers in tests
// typically pass nil conn and construct models directly instead.
func New(conn sqlx.SqlConn, c cache.CacheConf) *Set {
	return &Set{
		Tokens:            model.NewTokensModel(conn, c),
		Callers:           model.NewCallersModel(conn, c),
		Alerts:            model.NewAlertsModel(conn, c),
		Strategies:        model.NewStrategiesModel(conn, c),
		SimulationRuns:    model.NewSimulationRunsModel(conn, c),
		SimulationResults: model.NewSimulationResultsModel(conn, c),
	}
}
