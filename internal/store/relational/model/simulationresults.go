package model

import (
	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// SimulationResultsModel is the custom extension of the generated
// simulation_results_summary CRUD.
type SimulationResultsModel interface {
	simulationResultsModel
}

type customSimulationResultsModel struct {
	*defaultSimulationResultsModel
}

// NewSimulationResultsModel returns the relational model for
// simulation_results_summary.
func NewSimulationResultsModel(conn sqlx.SqlConn, c cache.CacheConf) SimulationResultsModel {
	return &customSimulationResultsModel{defaultSimulationResultsModel: newSimulationResultsModel(conn, c)}
}
