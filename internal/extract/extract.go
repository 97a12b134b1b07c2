// Package extract pulls structured fields out of a proposal's free-text body.
// The body format comes from an upstream templating step this system does not
// control, so every function here is total: no match means a zero value, never
// an error.
package extract

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/apidrift/driftwatch/internal/domain/model"
)

// Labels the upstream pipeline applies to proposals it opens.
const (
	LabelHighConfidence = "high-confidence"
	LabelNeedsReview    = "needs-review"
)

var (
	mdParser = goldmark.New(goldmark.WithExtensions(extension.GFM))

	triggeredByPattern = regexp.MustCompile(`(?i)triggered by:\s*commit\s+([0-9a-f]{7,40})`)
	bareCommitPattern  = regexp.MustCompile(`(?i)\bcommit\s+([0-9a-f]{7,40})\b`)

	// Documentation-path shape for inline code spans: a docs/ path or a
	// recognized top-level readme.
	docPathPattern = regexp.MustCompile(`^(docs/[\w./-]+|(?i:readme)(?:\.(?i:md|rst))?)$`)

	dashesOnly = regexp.MustCompile(`^[\s|:-]+$`)
)

// Apply fills the extracted fields of a proposal from its raw body: tallies,
// touched paths, triggering commit, confidence label, and a default closed
// reason for closed-unmerged proposals.
func Apply(p model.Proposal, body string) model.Proposal {
	p.Tallies = Tallies(body)
	p.TouchedPaths = TouchedPaths(body)
	p.TriggeringRef = TriggeringRef(body)
	p.ConfidenceLabel = ConfidenceLabelFor(p.Labels, p.Tallies)

	if p.State == model.ProposalStateClosed && p.ClosedReason == "" {
		p.ClosedReason = "closed without merge"
	}

	return p
}

// Tallies counts confidence rows in the body's summary table. Header and
// separator rows (rows containing "change", or only dashes) are excluded.
// A body with no recognizable table yields all-zero tallies.
func Tallies(body string) model.Tallies {
	var t model.Tallies

	walkBody(body, func(n ast.Node, source []byte) {
		row, ok := n.(*east.TableRow)
		if !ok {
			return
		}
		rowText := strings.ToLower(string(nodeText(row, source)))
		if strings.Contains(rowText, "change") || dashesOnly.MatchString(rowText) {
			return
		}
		switch {
		case strings.Contains(rowText, "high"):
			t.High++
		case strings.Contains(rowText, "medium"):
			t.Medium++
		case strings.Contains(rowText, "low"):
			t.Low++
		}
	})

	return t
}

// TouchedPaths returns the documentation paths referenced as inline code
// spans, deduplicated in first-seen order.
func TouchedPaths(body string) []string {
	var paths []string
	seen := make(map[string]bool)

	walkBody(body, func(n ast.Node, source []byte) {
		span, ok := n.(*ast.CodeSpan)
		if !ok {
			return
		}
		token := string(spanText(span, source))
		if !docPathPattern.MatchString(token) || seen[token] {
			return
		}
		seen[token] = true
		paths = append(paths, token)
	})

	return paths
}

// TriggeringRef returns the commit hex the body names as its trigger. A
// "Triggered by: commit <hex>" line wins; any bare "commit <hex>" mention is
// the fallback. Empty when neither appears.
func TriggeringRef(body string) string {
	if m := triggeredByPattern.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	if m := bareCommitPattern.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return ""
}

// ConfidenceLabelFor derives the coarse proposal classification. Applied
// labels win; otherwise non-zero tallies decide; all-zero tallies stay
// unknown, which excludes the proposal from high-confidence batching.
func ConfidenceLabelFor(labels []string, t model.Tallies) model.ConfidenceLabel {
	for _, l := range labels {
		switch l {
		case LabelHighConfidence:
			return model.ConfidenceLabelHighOnly
		case LabelNeedsReview:
			return model.ConfidenceLabelNeedsReview
		}
	}

	if t.IsZero() {
		return model.ConfidenceLabelUnknown
	}
	if t.Medium == 0 && t.Low == 0 {
		return model.ConfidenceLabelHighOnly
	}
	return model.ConfidenceLabelNeedsReview
}

// walkBody parses the body as GFM markdown and invokes fn on every node.
func walkBody(body string, fn func(n ast.Node, source []byte)) {
	if body == "" {
		return
	}

	source := []byte(body)
	doc := mdParser.Parser().Parse(text.NewReader(source))

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			fn(n, source)
		}
		return ast.WalkContinue, nil
	})
}

// nodeText collects the text content under a node, joining segments with
// spaces so adjacent table cells don't run together.
func nodeText(n ast.Node, source []byte) []byte {
	var buf []byte
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := child.(*ast.Text); ok {
			buf = append(buf, t.Segment.Value(source)...)
			buf = append(buf, ' ')
		}
		return ast.WalkContinue, nil
	})
	return buf
}

// spanText collects a code span's literal content with no separators. The
// anchored path match needs the token byte-exact, even when the parser splits
// it across segments.
func spanText(n ast.Node, source []byte) []byte {
	var buf []byte
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := child.(*ast.Text); ok {
			buf = append(buf, t.Segment.Value(source)...)
		}
		return ast.WalkContinue, nil
	})
	return buf
}
