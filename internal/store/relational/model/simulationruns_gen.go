package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// SimulationRun is one invocation of the C8 experiment orchestration: a
// strategy applied against a seed over a set of alerts, publishing a
// manifest into the content-addressed artifact store on completion.
type SimulationRun struct {
	ID           int64  `db:"id"`
	RunID        string `db:"run_id"`
	StrategyID   int64  `db:"strategy_id"`
	Seed         int64  `db:"seed"`
	Status       string `db:"status"`
	ManifestHash string `db:"manifest_hash"`
	CreatedAt    int64  `db:"created_at"`
	CompletedAt  int64  `db:"completed_at"`
}

var simulationRunsFieldNames = []string{"id", "run_id", "strategy_id", "seed", "status", "manifest_hash", "created_at", "completed_at"}

const simulationRunsTable = "simulation_runs"

type simulationRunsModel interface {
	Insert(ctx context.Context, data *SimulationRun) (int64, error)
	FindOneByRunID(ctx context.Context, runID string) (*SimulationRun, error)
	UpdateStatus(ctx context.Context, runID, status string) error
	Complete(ctx context.Context, runID, manifestHash string, completedAt int64) error
	ListByStrategy(ctx context.Context, strategyID int64, limit int) ([]SimulationRun, error)
}

type defaultSimulationRunsModel struct {
	conn  sqlx.SqlConn
	cache cache.Cache
	table string
}

func newSimulationRunsModel(conn sqlx.SqlConn, c cache.CacheConf, opts ...cache.Option) *defaultSimulationRunsModel {
	return &defaultSimulationRunsModel{conn: conn, cache: cache.NewCache(c, opts...), table: simulationRunsTable}
}

func (m *defaultSimulationRunsModel) Insert(ctx context.Context, data *SimulationRun) (int64, error) {
	query := fmt.Sprintf(`insert into %s (run_id, strategy_id, seed, status, manifest_hash, created_at, completed_at)
		values ($1,$2,$3,$4,$5,$6,$7) returning id`, m.table)
	var id int64
	err := m.conn.QueryRowCtx(ctx, &id, query, data.RunID, data.StrategyID, data.Seed, data.Status,
		data.ManifestHash, data.CreatedAt, data.CompletedAt)
	return id, err
}

func (m *defaultSimulationRunsModel) FindOneByRunID(ctx context.Context, runID string) (*SimulationRun, error) {
	var row SimulationRun
	query := fmt.Sprintf("select %s from %s where run_id = $1", strings.Join(simulationRunsFieldNames, ","), m.table)
	err := m.conn.QueryRowCtx(ctx, &row, query, runID)
	switch err {
	case nil:
		return &row, nil
	case sqlx.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, err
	}
}

func (m *defaultSimulationRunsModel) UpdateStatus(ctx context.Context, runID, status string) error {
	query := fmt.Sprintf("update %s set status = $1 where run_id = $2", m.table)
	_, err := m.conn.ExecCtx(ctx, query, status, runID)
	return err
}

func (m *defaultSimulationRunsModel) Complete(ctx context.Context, runID, manifestHash string, completedAt int64) error {
	query := fmt.Sprintf("update %s set status = 'completed', manifest_hash = $1, completed_at = $2 where run_id = $3", m.table)
	_, err := m.conn.ExecCtx(ctx, query, manifestHash, completedAt, runID)
	return err
}

func (m *defaultSimulationRunsModel) ListByStrategy(ctx context.Context, strategyID int64, limit int) ([]SimulationRun, error) {
	var rows []SimulationRun
	query := fmt.Sprintf("select %s from %s where strategy_id = $1 order by created_at desc limit $2", strings.Join(simulationRunsFieldNames, ","), m.table)
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, strategyID, limit); err != nil {
		return nil, err
	}
	return rows, nil
}
