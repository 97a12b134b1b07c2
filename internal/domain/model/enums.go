package model

// Confidence expresses how mechanically certain a detected change's
// documentation impact is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Category identifies which taxonomy rule recognized a changed line.
type Category string

const (
	CategoryRouteDeclaration Category = "route-declaration"
	CategoryRouterMount      Category = "router-mount"
	CategoryHandlerSignature Category = "handler-signature"
	CategoryClassDeclaration Category = "class-declaration"
	CategoryTypedField       Category = "typed-field"
	CategoryResponseContract Category = "response-contract"
	CategoryStatusCode       Category = "status-code"
	CategoryErrorRaise       Category = "error-raise"
	CategoryAuthDependency   Category = "auth-dependency"
	CategoryParameterBinding Category = "request-parameter-binding"
)

// ProposalState represents the lifecycle state of a remediation proposal.
// Merged and Closed are terminal.
type ProposalState string

const (
	ProposalStateOpen   ProposalState = "open"
	ProposalStateMerged ProposalState = "merged"
	ProposalStateClosed ProposalState = "closed"
)

// ConfidenceLabel is the coarse per-proposal classification, distinct from
// per-change confidence. Derived from applied labels first, tallies second.
type ConfidenceLabel string

const (
	ConfidenceLabelHighOnly    ConfidenceLabel = "high_only"
	ConfidenceLabelNeedsReview ConfidenceLabel = "needs_review"
	ConfidenceLabelUnknown     ConfidenceLabel = "unknown"
)
