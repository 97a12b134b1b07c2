package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/apidrift/driftwatch/internal/domain/model"
	"github.com/apidrift/driftwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AttemptStore = (*AttemptRepo)(nil)

// AttemptRepo is the SQLite implementation of the AttemptStore port interface.
type AttemptRepo struct {
	db *DB
}

// NewAttemptRepo creates a new AttemptRepo backed by the given DB.
func NewAttemptRepo(db *DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// RecordAttempt persists the outcome of one consolidation pass. Candidate
// numbers are serialized as a JSON array in the TEXT column.
func (r *AttemptRepo) RecordAttempt(ctx context.Context, attempt model.ConsolidationAttempt) error {
	numbers := attempt.CandidateNumbers
	if numbers == nil {
		numbers = []int{}
	}
	numbersJSON, err := json.Marshal(numbers)
	if err != nil {
		return fmt.Errorf("marshal candidate numbers: %w", err)
	}

	eligible := 0
	if attempt.Eligible {
		eligible = 1
	}
	failed := 0
	if attempt.Failed {
		failed = 1
	}

	_, err = r.db.Writer.ExecContext(ctx, `
		INSERT INTO consolidation_attempts (eligible, candidate_numbers, batch_number, failed, failure_reason, attempted_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, eligible, string(numbersJSON), attempt.BatchNumber, failed, attempt.FailureReason, attempt.AttemptedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert consolidation attempt: %w", err)
	}

	return nil
}

// ListRecentAttempts returns up to limit attempts, most recent first.
func (r *AttemptRepo) ListRecentAttempts(ctx context.Context, limit int) ([]model.ConsolidationAttempt, error) {
	const query = `
		SELECT id, eligible, candidate_numbers, batch_number, failed, failure_reason, attempted_at
		FROM consolidation_attempts
		ORDER BY attempted_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent attempts: %w", err)
	}
	defer rows.Close()

	var attempts []model.ConsolidationAttempt
	for rows.Next() {
		var a model.ConsolidationAttempt
		var eligible, failed int
		var numbersJSON string

		if err := rows.Scan(&a.ID, &eligible, &numbersJSON, &a.BatchNumber, &failed, &a.FailureReason, &a.AttemptedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}

		a.Eligible = eligible != 0
		a.Failed = failed != 0
		if err := json.Unmarshal([]byte(numbersJSON), &a.CandidateNumbers); err != nil {
			return nil, fmt.Errorf("unmarshal candidate numbers for attempt %d: %w", a.ID, err)
		}

		attempts = append(attempts, a)
	}

	return attempts, rows.Err()
}
