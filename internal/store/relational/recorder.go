package relational

import (
	"context"
	"fmt"

	"alertlab/internal/store/relational/model"
	"alertlab/pkg/experiment"
)

// Recorder adapts a Set to experiment.Recorder, persisting run lifecycle
// transitions and per-alert outcomes into the OLTP tables C8 depends on.
type Recorder struct {
	Set *Set
}

// NewRecorder wraps set as an experiment.Recorder.
func NewRecorder(set *Set) *Recorder {
	return &Recorder{Set: set}
}

func (r *Recorder) MarkRunning(ctx context.Context, runID string) error {
	return r.Set.SimulationRuns.UpdateStatus(ctx, runID, "running")
}

func (r *Recorder) RecordResults(ctx context.Context, runID string, results []experiment.AlertResult) error {
	rows := make([]model.SimulationResultSummary, len(results))
	for i, res := range results {
		alertID, err := parseAlertID(res.Input.ID)
		if err != nil {
			return fmt.Errorf("relational: result %d: %w", i, err)
		}
		rows[i] = model.SimulationResultSummary{
			RunID:       runID,
			AlertID:     alertID,
			RealizedPnL: res.Result.RealizedPnL.String(),
			Status:      string(res.Result.Status),
			FinalPrice:  res.Result.FinalPrice.String(),
			FillsCount:  int64(len(res.Result.Fills)),
		}
	}
	return r.Set.SimulationResults.InsertBatch(ctx, rows)
}

func (r *Recorder) Complete(ctx context.Context, runID, manifestHash string, completedAt int64) error {
	return r.Set.SimulationRuns.Complete(ctx, runID, manifestHash, completedAt)
}

func (r *Recorder) Fail(ctx context.Context, runID string, reason string) error {
	if err := r.Set.SimulationRuns.UpdateStatus(ctx, runID, "failed"); err != nil {
		return err
	}
	_ = reason // surfaced via logging at the call site, not persisted verbatim
	return nil
}

func parseAlertID(s string) (int64, error) {
	var id int64
	_, err := fmt.Sscanf(s, "%d", &id)
	if err != nil {
		return 0, fmt.Errorf("parse alert id %q: %w", s, err)
	}
	return id, nil
}
