// Package report renders the artifacts this system produces for other
// tooling and for humans: the verdict JSON shape, notification summaries,
// session prompts, and consolidated proposal bodies.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/apidrift/driftwatch/internal/domain/model"
)

// verdictJSON is the fixed serialized shape of a DriftVerdict. Field names
// and the "[<file>] <rawLine>" change format are depended on by downstream
// tooling; do not rename.
type verdictJSON struct {
	HasAPIDrift  bool     `json:"hasApiDrift"`
	ChangedFiles []string `json:"changedFiles"`
	Changes      []string `json:"changes"`
}

// VerdictJSON serializes a verdict into its published JSON shape.
func VerdictJSON(v model.DriftVerdict) ([]byte, error) {
	out := verdictJSON{
		HasAPIDrift:  v.HasDrift,
		ChangedFiles: v.ChangedFiles,
		Changes:      make([]string, 0, len(v.Changes)),
	}
	if out.ChangedFiles == nil {
		out.ChangedFiles = []string{}
	}
	for _, c := range v.Changes {
		out.Changes = append(out.Changes, c.String())
	}

	return json.Marshal(out)
}

// DriftSummary renders the markdown notification payload for one drift
// detection. sessionURL may be empty when session dispatch failed; the
// summary then says so rather than omitting the section.
func DriftSummary(repo string, head model.Commit, verdict model.DriftVerdict, sessionURL string) string {
	var b strings.Builder

	tallies := verdict.CountByConfidence()

	fmt.Fprintf(&b, "## API drift detected in %s\n\n", repo)
	fmt.Fprintf(&b, "Triggered by: commit %s (%s)\n\n", head.SHA, firstLine(head.Message))
	fmt.Fprintf(&b, "%d change(s) across %d file(s): %d high, %d medium, %d low confidence.\n\n",
		len(verdict.Changes), len(verdict.ChangedFiles), tallies.High, tallies.Medium, tallies.Low)

	b.WriteString("| Change | File | Confidence |\n")
	b.WriteString("| --- | --- | --- |\n")
	for _, c := range verdict.Changes {
		fmt.Fprintf(&b, "| `%s` | `%s` | %s |\n", escapePipes(strings.TrimSpace(c.RawLine)), c.File, c.Confidence)
	}
	b.WriteString("\n")

	if sessionURL != "" {
		fmt.Fprintf(&b, "Remediation session: %s\n", sessionURL)
	} else {
		b.WriteString("Remediation session could not be created; manual follow-up needed.\n")
	}

	return b.String()
}

// SessionPrompt renders the instruction text dispatched to the remediation
// session for a detected drift.
func SessionPrompt(repo string, head model.Commit, verdict model.DriftVerdict) string {
	var b strings.Builder

	fmt.Fprintf(&b, "The API surface of %s changed in commit %s (%s).\n", repo, head.SHA, firstLine(head.Message))
	b.WriteString("Update the documentation to match the following detected changes. ")
	b.WriteString("Open one proposal per change-set, include a confidence table in the body, ")
	fmt.Fprintf(&b, "and reference the triggering commit as \"Triggered by: commit %s\".\n\n", head.SHA)

	for _, file := range verdict.ChangedFiles {
		fmt.Fprintf(&b, "%s:\n", file)
		for _, c := range verdict.ChangesForFile(file) {
			fmt.Fprintf(&b, "  [%s, %s confidence] %s\n", c.Category, c.Confidence, strings.TrimSpace(c.RawLine))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// ConsolidatedBody renders the batch proposal body: each candidate's content
// under its own heading, in merge order.
func ConsolidatedBody(candidates []model.Proposal) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Consolidates %d independently verified documentation change-sets.\n\n", len(candidates))

	for _, c := range candidates {
		fmt.Fprintf(&b, "## #%d %s\n\n", c.Number, c.Title)
		body := strings.TrimSpace(c.Body)
		if body == "" {
			body = "_No description provided._"
		}
		b.WriteString(body)
		b.WriteString("\n\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// ConsolidationSummary renders the notification payload for a finished
// consolidation pass, successful or not.
func ConsolidationSummary(result model.ConsolidationResult) string {
	if result.Failed {
		return fmt.Sprintf("Consolidation attempt rolled back: %s\n", result.FailureReason)
	}
	if result.Batch == nil {
		return fmt.Sprintf("Consolidation not attempted: %s\n", result.FailureReason)
	}

	return fmt.Sprintf("Consolidated %d proposals into #%d: %s\n",
		result.CandidateCount(), result.Batch.Number, result.Batch.URL)
}

// RunHistory renders recent classification runs as a markdown table, in the
// order given (the store returns most recent first).
func RunHistory(runs []model.DriftRun) string {
	if len(runs) == 0 {
		return "No classification runs recorded.\n"
	}

	var b strings.Builder
	b.WriteString("| Run | Commit | Drift | Files | Changes | Session | At |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- | --- |\n")
	for _, r := range runs {
		drift := "no"
		if r.HasDrift {
			drift = "yes"
		}
		session := r.SessionURL
		if session == "" {
			session = "-"
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %d | %d | %s | %s |\n",
			r.ID, model.Commit{SHA: r.CommitSHA}.ShortSHA(), drift,
			r.FileCount, r.ChangeCount, session, r.RanAt.UTC().Format(time.RFC3339))
	}

	return b.String()
}

// AttemptHistory renders recent consolidation attempts as a markdown table,
// in the order given.
func AttemptHistory(attempts []model.ConsolidationAttempt) string {
	if len(attempts) == 0 {
		return "No consolidation attempts recorded.\n"
	}

	var b strings.Builder
	b.WriteString("| Attempt | Eligible | Candidates | Batch | Outcome | At |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- |\n")
	for _, a := range attempts {
		eligible := "no"
		if a.Eligible {
			eligible = "yes"
		}
		batch := "-"
		if a.BatchNumber != 0 {
			batch = fmt.Sprintf("#%d", a.BatchNumber)
		}
		outcome := "ok"
		if a.FailureReason != "" {
			outcome = escapePipes(a.FailureReason)
		}
		fmt.Fprintf(&b, "| %d | %s | %d | %s | %s | %s |\n",
			a.ID, eligible, len(a.CandidateNumbers), batch, outcome,
			a.AttemptedAt.UTC().Format(time.RFC3339))
	}

	return b.String()
}

// firstLine returns the subject line of a commit message.
func firstLine(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return msg[:i]
	}
	return msg
}

// escapePipes keeps raw diff lines from breaking markdown table cells.
func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
