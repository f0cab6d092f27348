package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// SimulationResultSummary is one alert's outcome within a run, the
// per-alert row C8's aggregate step reduces into a leaderboard entry.
type SimulationResultSummary struct {
	ID          int64  `db:"id"`
	RunID       string `db:"run_id"`
	AlertID     int64  `db:"alert_id"`
	RealizedPnL string `db:"realized_pnl"`
	Status      string `db:"status"`
	FinalPrice  string `db:"final_price"`
	FillsCount  int64  `db:"fills_count"`
}

var simulationResultsFieldNames = []string{"id", "run_id", "alert_id", "realized_pnl", "status", "final_price", "fills_count"}

const simulationResultsTable = "simulation_results_summary"

type simulationResultsModel interface {
	InsertBatch(ctx context.Context, rows []SimulationResultSummary) error
	ListByRun(ctx context.Context, runID string) ([]SimulationResultSummary, error)
	AggregatePnLByRun(ctx context.Context, runID string) (string, error)
	LeaderboardByStrategy(ctx context.Context, limit int) ([]StrategyPnL, error)
}

// StrategyPnL is one row of the cross-run, per-strategy leaderboard: the
// sum of realized P&L across every run of that strategy that has result
// rows, whatever the run's status.
type StrategyPnL struct {
	StrategyName string `db:"name"`
	RunCount     int64  `db:"run_count"`
	TotalPnL     string `db:"total_pnl"`
}

type defaultSimulationResultsModel struct {
	conn  sqlx.SqlConn
	cache cache.Cache
	table string
}

func newSimulationResultsModel(conn sqlx.SqlConn, c cache.CacheConf, opts ...cache.Option) *defaultSimulationResultsModel {
	return &defaultSimulationResultsModel{conn: conn, cache: cache.NewCache(c, opts...), table: simulationResultsTable}
}

// InsertBatch writes one row per alert in the run in a single statement,
// mirroring the time-series store's batched-upsert shape (C1's
// candles.go) generalized to a plain multi-row insert since results are
// never re-published for a completed run.
func (m *defaultSimulationResultsModel) InsertBatch(ctx context.Context, rows []SimulationResultSummary) error {
	if len(rows) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("insert into %s (run_id, alert_id, realized_pnl, status, final_price, fills_count) values ", m.table))
	args := make([]any, 0, len(rows)*6)
	for i, r := range rows {
		if i > 0 {
			sb.WriteString(",")
		}
		base := i * 6
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4, base+5, base+6)
		args = append(args, r.RunID, r.AlertID, r.RealizedPnL, r.Status, r.FinalPrice, r.FillsCount)
	}
	_, err := m.conn.ExecCtx(ctx, sb.String(), args...)
	return err
}

func (m *defaultSimulationResultsModel) ListByRun(ctx context.Context, runID string) ([]SimulationResultSummary, error) {
	var rows []SimulationResultSummary
	query := fmt.Sprintf("select %s from %s where run_id = $1", strings.Join(simulationResultsFieldNames, ","), m.table)
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, runID); err != nil {
		return nil, err
	}
	return rows, nil
}

func (m *defaultSimulationResultsModel) AggregatePnLByRun(ctx context.Context, runID string) (string, error) {
	query := fmt.Sprintf("select coalesce(sum(realized_pnl), 0)::text from %s where run_id = $1", m.table)
	var total string
	err := m.conn.QueryRowCtx(ctx, &total, query, runID)
	return total, err
}

// LeaderboardByStrategy sums realized P&L per strategy across every run
// of that strategy, ordered by total descending. This is the query
// experiment.leaderboard surfaces; it lives here rather than in the CLI
// layer since it's a plain aggregate over this table's own join path.
func (m *defaultSimulationResultsModel) LeaderboardByStrategy(ctx context.Context, limit int) ([]StrategyPnL, error) {
	query := fmt.Sprintf(`
		select s.name as name, count(distinct r.id) as run_count, coalesce(sum(res.realized_pnl), 0)::text as total_pnl
		from %s res
		join simulation_runs r on r.run_id = res.run_id
		join strategies s on s.id = r.strategy_id
		group by s.name
		order by sum(res.realized_pnl) desc
		limit $1`, m.table)
	var rows []StrategyPnL
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, limit); err != nil {
		return nil, err
	}
	return rows, nil
}
