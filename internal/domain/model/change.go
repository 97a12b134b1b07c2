package model

import (
	"fmt"
	"sort"
)

// ChangeRecord represents one detected API-relevant mutation in a diff.
// Records are immutable once produced by the classifier.
type ChangeRecord struct {
	File       string     // Destination path from the diff file header, not the matched line.
	RawLine    string     // Literal added/removed line, including its leading "+" or "-".
	Category   Category   // Taxonomy category that matched the line.
	Confidence Confidence // Assigned by the matching rule; see classify package.
}

// String formats the record the way downstream reporting consumes it.
func (c ChangeRecord) String() string {
	return fmt.Sprintf("[%s] %s", c.File, c.RawLine)
}

// DriftVerdict is the result of classifying one diff. HasDrift is true iff
// Changes is non-empty; ChangedFiles is the distinct set of files across Changes.
type DriftVerdict struct {
	HasDrift     bool
	ChangedFiles []string
	Changes      []ChangeRecord
}

// NewDriftVerdict builds a verdict from its change records. HasDrift follows
// from the records being non-empty; ChangedFiles is derived as the sorted
// distinct file set, so a verdict rebuilt from persisted records matches the
// one the classifier produced.
func NewDriftVerdict(changes []ChangeRecord) DriftVerdict {
	if len(changes) == 0 {
		return DriftVerdict{}
	}

	seen := make(map[string]bool)
	files := make([]string, 0, len(changes))
	for _, c := range changes {
		if !seen[c.File] {
			seen[c.File] = true
			files = append(files, c.File)
		}
	}
	sort.Strings(files)

	return DriftVerdict{
		HasDrift:     true,
		ChangedFiles: files,
		Changes:      changes,
	}
}

// ChangesForFile returns the records attributed to the given file, in
// classification order.
func (v DriftVerdict) ChangesForFile(file string) []ChangeRecord {
	var out []ChangeRecord
	for _, c := range v.Changes {
		if c.File == file {
			out = append(out, c)
		}
	}
	return out
}

// CountByConfidence tallies the verdict's records per confidence level.
func (v DriftVerdict) CountByConfidence() Tallies {
	var t Tallies
	for _, c := range v.Changes {
		switch c.Confidence {
		case ConfidenceHigh:
			t.High++
		case ConfidenceMedium:
			t.Medium++
		case ConfidenceLow:
			t.Low++
		}
	}
	return t
}
