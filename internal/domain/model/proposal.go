package model

import "time"

// Tallies holds the per-confidence change counts parsed from a proposal's
// summary table. All zero when the body carried no recognizable table.
type Tallies struct {
	High   int
	Medium int
	Low    int
}

// Total returns the sum across all confidence levels.
func (t Tallies) Total() int {
	return t.High + t.Medium + t.Low
}

// IsZero reports whether no table row was counted at all.
func (t Tallies) IsZero() bool {
	return t.High == 0 && t.Medium == 0 && t.Low == 0
}

// Proposal is the derived view of one remediation change-set open against the
// watched repository. The proposal store owns the canonical record; instances
// here are transient copies held for the duration of one pass.
type Proposal struct {
	Number          int
	Title           string
	URL             string
	Body            string
	Branch          string // Head ref carrying the proposed changes.
	BaseBranch      string
	State           ProposalState
	ConfidenceLabel ConfidenceLabel
	Tallies         Tallies
	TouchedPaths    []string // Documentation paths the body claims to modify.
	TriggeringRef   string   // Commit that caused the proposal to be opened; empty if unknown.
	Labels          []string
	CreatedAt       time.Time
	MergedAt        time.Time // Zero unless State == ProposalStateMerged.
	ClosedReason    string    // Derivable for closed-unmerged proposals; defaults to a generic reason.
}

// TouchesPath reports whether the proposal claims to modify the given path.
func (p Proposal) TouchesPath(path string) bool {
	for _, tp := range p.TouchedPaths {
		if tp == path {
			return true
		}
	}
	return false
}

// HasLabel reports whether the proposal carries the given label (exact match).
func (p Proposal) HasLabel(name string) bool {
	for _, l := range p.Labels {
		if l == name {
			return true
		}
	}
	return false
}
