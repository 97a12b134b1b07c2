package driven

import (
	"context"

	"github.com/apidrift/driftwatch/internal/domain/model"
)

// RunStore defines the driven port for classification-run history persistence.
type RunStore interface {
	// RecordRun persists a completed run and its change records, returning the
	// assigned run ID.
	RecordRun(ctx context.Context, run model.DriftRun, changes []model.ChangeRecord) (int64, error)

	// GetRunByCommit returns the run recorded for the given commit SHA, or
	// nil, nil if the commit has not been processed.
	GetRunByCommit(ctx context.Context, sha string) (*model.DriftRun, error)

	// GetChanges returns the change records persisted for a run, in
	// classification order.
	GetChanges(ctx context.Context, runID int64) ([]model.ChangeRecord, error)

	// ListRecentRuns returns up to limit runs, most recent first.
	ListRecentRuns(ctx context.Context, limit int) ([]model.DriftRun, error)
}

// AttemptStore defines the driven port for consolidation-attempt history.
type AttemptStore interface {
	// RecordAttempt persists the outcome of one consolidation pass.
	RecordAttempt(ctx context.Context, attempt model.ConsolidationAttempt) error

	// ListRecentAttempts returns up to limit attempts, most recent first.
	ListRecentAttempts(ctx context.Context, limit int) ([]model.ConsolidationAttempt, error)
}
