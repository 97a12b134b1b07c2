package model

// ConsolidationPlan is the planner's decision over one snapshot of open
// proposals. When Eligible is false, Reason carries a machine-readable
// explanation and Candidates is empty.
type ConsolidationPlan struct {
	Eligible   bool
	Candidates []Proposal // Sorted by CreatedAt ascending; this is the merge order.
	Reason     string
}

// ConsolidationResult is the outcome of executing one plan. On success the
// batch proposal is open and every candidate is closed; on failure no
// candidate's state changed and the integration branch is gone.
type ConsolidationResult struct {
	Batch            *Proposal // The new open proposal; nil when Failed.
	MergedCandidates []int     // Candidate proposal numbers folded into the batch, in merge order.
	Failed           bool
	FailureReason    string
}

// CandidateCount returns how many candidates were folded into the batch.
func (r ConsolidationResult) CandidateCount() int {
	return len(r.MergedCandidates)
}
