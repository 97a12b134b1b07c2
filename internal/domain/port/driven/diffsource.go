package driven

import (
	"context"

	"github.com/apidrift/driftwatch/internal/domain/model"
)

// DiffSource defines the driven port for reading commit history and diff text
// from the watched repository.
type DiffSource interface {
	// GetHeadCommit returns the current tip of the watched branch.
	GetHeadCommit(ctx context.Context) (*model.Commit, error)

	// GetDiff returns the unified diff between the head commit and its parent,
	// restricted to the given path scope (empty scope means the whole tree).
	// A head commit with no parent (no prior revision) returns "", nil --
	// nothing to classify is not an error.
	GetDiff(ctx context.Context, pathScope string) (string, error)
}
