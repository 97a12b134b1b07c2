package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/apidrift/driftwatch/internal/domain/model"
	"github.com/apidrift/driftwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RunStore = (*RunRepo)(nil)

// RunRepo is the SQLite implementation of the RunStore port interface.
type RunRepo struct {
	db *DB
}

// NewRunRepo creates a new RunRepo backed by the given DB.
func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// RecordRun persists a run and its change records in one transaction and
// returns the assigned run ID. Records keep their classification order via
// the position column.
func (r *RunRepo) RecordRun(ctx context.Context, run model.DriftRun, changes []model.ChangeRecord) (int64, error) {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin run transaction: %w", err)
	}
	defer tx.Rollback()

	hasDrift := 0
	if run.HasDrift {
		hasDrift = 1
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO drift_runs (commit_sha, commit_title, has_drift, file_count, change_count, session_url, ran_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.CommitSHA, run.CommitTitle, hasDrift, run.FileCount, run.ChangeCount, run.SessionURL, run.RanAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("insert run for %s: %w", run.CommitSHA, err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run insert id: %w", err)
	}

	for i, c := range changes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO change_records (run_id, position, file, raw_line, category, confidence)
			VALUES (?, ?, ?, ?, ?, ?)
		`, runID, i, c.File, c.RawLine, string(c.Category), string(c.Confidence))
		if err != nil {
			return 0, fmt.Errorf("insert change record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run for %s: %w", run.CommitSHA, err)
	}

	return runID, nil
}

// GetRunByCommit returns the run recorded for the given commit SHA.
// Returns nil, nil if the commit has not been processed.
func (r *RunRepo) GetRunByCommit(ctx context.Context, sha string) (*model.DriftRun, error) {
	const query = `
		SELECT id, commit_sha, commit_title, has_drift, file_count, change_count, session_url, ran_at
		FROM drift_runs
		WHERE commit_sha = ?
	`

	run, err := scanRun(r.db.Reader.QueryRowContext(ctx, query, sha))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run by commit %s: %w", sha, err)
	}

	return run, nil
}

// GetChanges returns the change records persisted for a run, in
// classification order.
func (r *RunRepo) GetChanges(ctx context.Context, runID int64) ([]model.ChangeRecord, error) {
	const query = `
		SELECT file, raw_line, category, confidence
		FROM change_records
		WHERE run_id = ?
		ORDER BY position
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query changes for run %d: %w", runID, err)
	}
	defer rows.Close()

	var changes []model.ChangeRecord
	for rows.Next() {
		var c model.ChangeRecord
		var category, confidence string
		if err := rows.Scan(&c.File, &c.RawLine, &category, &confidence); err != nil {
			return nil, fmt.Errorf("scan change record: %w", err)
		}
		c.Category = model.Category(category)
		c.Confidence = model.Confidence(confidence)
		changes = append(changes, c)
	}

	return changes, rows.Err()
}

// ListRecentRuns returns up to limit runs, most recent first.
func (r *RunRepo) ListRecentRuns(ctx context.Context, limit int) ([]model.DriftRun, error) {
	const query = `
		SELECT id, commit_sha, commit_title, has_drift, file_count, change_count, session_url, ran_at
		FROM drift_runs
		ORDER BY ran_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent runs: %w", err)
	}
	defer rows.Close()

	var runs []model.DriftRun
	for rows.Next() {
		run, err := scanRunRows(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

func scanRun(row *sql.Row) (*model.DriftRun, error) {
	var run model.DriftRun
	var hasDrift int

	err := row.Scan(&run.ID, &run.CommitSHA, &run.CommitTitle, &hasDrift,
		&run.FileCount, &run.ChangeCount, &run.SessionURL, &run.RanAt)
	if err != nil {
		return nil, err
	}

	run.HasDrift = hasDrift != 0
	return &run, nil
}

func scanRunRows(rows *sql.Rows) (*model.DriftRun, error) {
	var run model.DriftRun
	var hasDrift int

	err := rows.Scan(&run.ID, &run.CommitSHA, &run.CommitTitle, &hasDrift,
		&run.FileCount, &run.ChangeCount, &run.SessionURL, &run.RanAt)
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	run.HasDrift = hasDrift != 0
	return &run, nil
}
