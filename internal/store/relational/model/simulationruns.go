package model

import (
	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// SimulationRunsModel is the custom extension of the generated
// simulation_runs CRUD.
type SimulationRunsModel interface {
	simulationRunsModel
}

type customSimulationRunsModel struct {
	*defaultSimulationRunsModel
}

// NewSimulationRunsModel returns the relational model for simulation_runs.
func NewSimulationRunsModel(conn sqlx.SqlConn, c cache.CacheConf) SimulationRunsModel {
	return &customSimulationRunsModel{defaultSimulationRunsModel: newSimulationRunsModel(conn, c)}
}
