package driven

import "context"

// Session identifies an asynchronous remediation session created with the
// agent service.
type Session struct {
	ID  string
	URL string
}

// SessionService defines the driven port for dispatching remediation work to
// the third-party agent service. Implementations retry once on any failure;
// a second failure surfaces as an error.
type SessionService interface {
	CreateSession(ctx context.Context, prompt string) (*Session, error)
}
