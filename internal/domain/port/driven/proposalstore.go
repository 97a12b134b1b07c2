package driven

import (
	"context"
	"errors"

	"github.com/apidrift/driftwatch/internal/domain/model"
)

// ErrMergeConflict is returned by MergeBranch when the host reports that the
// head branch cannot be merged cleanly. Callers roll back rather than retry:
// a conflict is a definitive outcome, not a transient fault.
var ErrMergeConflict = errors.New("merge conflict")

// NewProposal is the input to ProposalStore.CreateProposal.
type NewProposal struct {
	Title  string
	Body   string
	Head   string // Branch carrying the changes.
	Base   string // Branch the proposal targets.
	Labels []string
}

// ProposalStore defines the driven port for the host's change-proposal system.
// List and read methods fetch proposal state; write methods mutate the ref
// namespace and proposal lifecycle. The consolidation executor is the only
// caller of the write methods.
type ProposalStore interface {
	// ListOpenProposals returns all open proposals carrying the given label.
	ListOpenProposals(ctx context.Context, label string) ([]model.Proposal, error)

	// CreateBranch creates a new branch at the current tip of fromRef.
	CreateBranch(ctx context.Context, name, fromRef string) error

	// DeleteBranch removes a branch. Deleting an already-absent branch is not
	// an error.
	DeleteBranch(ctx context.Context, name string) error

	// MergeBranch merges head into base with the given commit message.
	// Returns an error wrapping ErrMergeConflict when the merge cannot be
	// performed cleanly.
	MergeBranch(ctx context.Context, base, head, message string) error

	// CreateProposal opens a new proposal and applies its labels.
	CreateProposal(ctx context.Context, np NewProposal) (*model.Proposal, error)

	// CreateComment adds a top-level comment to a proposal.
	CreateComment(ctx context.Context, number int, body string) error

	// CloseProposal transitions an open proposal to closed without merging.
	CloseProposal(ctx context.Context, number int) error
}
