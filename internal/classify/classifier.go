package classify

import (
	"regexp"
	"strings"

	"github.com/apidrift/driftwatch/internal/domain/model"
)

// fileHeader matches the "diff --git a/old b/new" line. The destination path
// is retained so renames are attributed to the post-change path.
var fileHeader = regexp.MustCompile(`^diff --git a/(\S+) b/(\S+)`)

// Classifier scans unified-diff text against an ordered taxonomy.
type Classifier struct {
	rules []Rule
}

// NewClassifier returns a Classifier using the default taxonomy.
func NewClassifier() *Classifier {
	return &Classifier{rules: DefaultTaxonomy()}
}

// NewClassifierWithRules returns a Classifier over a caller-supplied rule set.
// Rule order is first-match-wins.
func NewClassifierWithRules(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify scans the diff line by line and emits one ChangeRecord per changed
// line that matches a taxonomy rule. A line matching several rules produces
// exactly one record, attributed to the first matching rule. A diff with no
// matching line is the normal "no API-relevant change" outcome, not an error.
func (c *Classifier) Classify(diffText string) model.DriftVerdict {
	if strings.TrimSpace(diffText) == "" {
		return model.DriftVerdict{}
	}

	var (
		currentFile string
		changes     []model.ChangeRecord
	)

	for _, line := range strings.Split(diffText, "\n") {
		if m := fileHeader.FindStringSubmatch(line); m != nil {
			currentFile = m[2]
			continue
		}
		// A header line that failed to parse leaves currentFile alone:
		// a best-effort partial result beats aborting the pass.

		if !strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "-") {
			continue
		}
		if strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---") {
			continue
		}

		content := line[1:]
		for _, rule := range c.rules {
			if !rule.Pattern.MatchString(content) {
				continue
			}
			changes = append(changes, model.ChangeRecord{
				File:       currentFile,
				RawLine:    line,
				Category:   rule.Category,
				Confidence: rule.Confidence,
			})
			break
		}
	}

	return model.NewDriftVerdict(changes)
}
