// Package classify turns raw unified-diff text into structured, confidence-scored
// change records by matching changed lines against an ordered pattern taxonomy.
package classify

import (
	"regexp"

	"github.com/apidrift/driftwatch/internal/domain/model"
)

// Rule recognizes one category of API-relevant line mutation. Pattern is
// applied to the line content with its diff prefix stripped.
type Rule struct {
	Category   model.Category
	Confidence model.Confidence
	Pattern    *regexp.Regexp
	Rationale  string
}

// DefaultTaxonomy returns the ordered rule set. Order is significant:
// a line is attributed to the first rule that matches, so high-precision
// patterns come before broad ones. Changing the order changes which category
// a multi-match line lands in; a snapshot test pins it.
//
// Confidence policy: HIGH for mutations that are mechanically unambiguous from
// the diff alone, LOW for broad rules whose API impact needs surrounding code.
// MEDIUM is assigned at review time, never here. Over-matching is deliberate --
// a false positive routes to human review, a missed API change does not.
func DefaultTaxonomy() []Rule {
	return []Rule{
		{
			Category:   model.CategoryRouteDeclaration,
			Confidence: model.ConfidenceHigh,
			Pattern:    regexp.MustCompile(`@\w+\.(get|post|put|patch|delete|options|head)\s*\(`),
			Rationale:  "a route decorator added or removed changes the path surface directly",
		},
		{
			Category:   model.CategoryRouterMount,
			Confidence: model.ConfidenceHigh,
			Pattern:    regexp.MustCompile(`\b(include_router|APIRouter)\s*\(`),
			Rationale:  "mounting or re-prefixing a router moves every path under it",
		},
		{
			Category:   model.CategoryResponseContract,
			Confidence: model.ConfidenceHigh,
			Pattern:    regexp.MustCompile(`\bresponse_model\s*=`),
			Rationale:  "the declared response schema is the documented contract",
		},
		{
			Category:   model.CategoryStatusCode,
			Confidence: model.ConfidenceHigh,
			Pattern:    regexp.MustCompile(`\bstatus_code\s*=`),
			Rationale:  "explicit status assignments are part of the documented behavior",
		},
		{
			Category:   model.CategoryErrorRaise,
			Confidence: model.ConfidenceHigh,
			Pattern:    regexp.MustCompile(`\braise\s+HTTPException\b`),
			Rationale:  "raised HTTP errors define the documented failure modes",
		},
		{
			Category:   model.CategoryHandlerSignature,
			Confidence: model.ConfidenceHigh,
			Pattern:    regexp.MustCompile(`^\s*(async\s+)?def\s+\w+\s*\(`),
			Rationale:  "a handler signature change alters parameters or return shape",
		},
		{
			Category:   model.CategoryClassDeclaration,
			Confidence: model.ConfidenceHigh,
			Pattern:    regexp.MustCompile(`^\s*class\s+\w+`),
			Rationale:  "model classes back request and response schemas",
		},
		{
			Category:   model.CategoryAuthDependency,
			Confidence: model.ConfidenceLow,
			Pattern:    regexp.MustCompile(`\bDepends\s*\(`),
			Rationale:  "a dependency change may or may not be externally observable",
		},
		{
			Category:   model.CategoryParameterBinding,
			Confidence: model.ConfidenceLow,
			Pattern:    regexp.MustCompile(`\b(Query|Path|Body|Header|Cookie|Form|File)\s*\(`),
			Rationale:  "parameter binding markers are broad; impact needs surrounding code",
		},
		{
			Category:   model.CategoryTypedField,
			Confidence: model.ConfidenceHigh,
			Pattern:    regexp.MustCompile(`^\s*\w+\s*:\s*[A-Za-z_][\w.\[\]]*`),
			Rationale:  "an annotated field's declared type is the wire type; broad, so last",
		},
	}
}
