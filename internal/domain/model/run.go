package model

import "time"

// DriftRun records one completed classification pass for audit and for
// skipping commits that were already processed.
type DriftRun struct {
	ID          int64
	CommitSHA   string
	CommitTitle string
	HasDrift    bool
	FileCount   int
	ChangeCount int
	SessionURL  string // Remediation session dispatched for this run; empty if none.
	RanAt       time.Time
}

// ConsolidationAttempt records the outcome of one consolidation pass.
type ConsolidationAttempt struct {
	ID               int64
	Eligible         bool
	CandidateNumbers []int
	BatchNumber      int // Zero unless the attempt succeeded.
	Failed           bool
	FailureReason    string
	AttemptedAt      time.Time
}
