package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/apidrift/driftwatch/internal/classify"
	"github.com/apidrift/driftwatch/internal/domain/model"
	"github.com/apidrift/driftwatch/internal/domain/port/driven"
	"github.com/apidrift/driftwatch/internal/report"
)

// DriftService orchestrates one classification pass: fetch the head commit
// and its diff, classify, persist the run, and on drift dispatch a
// remediation session and deliver a notification.
type DriftService struct {
	diffs      driven.DiffSource
	runs       driven.RunStore
	sessions   driven.SessionService
	notifier   driven.NotificationSink
	classifier *classify.Classifier
	repo       string // owner/name, used in prompts and summaries.
	pathScope  string // Subtree watched for API changes.
}

// NewDriftService creates a DriftService with all required dependencies.
// sessions and notifier may be nil; the corresponding steps are then skipped.
func NewDriftService(
	diffs driven.DiffSource,
	runs driven.RunStore,
	sessions driven.SessionService,
	notifier driven.NotificationSink,
	repo string,
	pathScope string,
) *DriftService {
	return &DriftService{
		diffs:      diffs,
		runs:       runs,
		sessions:   sessions,
		notifier:   notifier,
		classifier: classify.NewClassifier(),
		repo:       repo,
		pathScope:  pathScope,
	}
}

// RunOnce executes one classification pass against the current head commit.
// A commit that was already processed is skipped and its recorded run
// returned. Classification always yields a well-formed run, possibly with no
// drift; session dispatch and notification delivery are best-effort and never
// fail the pass.
func (s *DriftService) RunOnce(ctx context.Context) (*model.DriftRun, error) {
	start := time.Now()

	head, err := s.diffs.GetHeadCommit(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching head commit: %w", err)
	}

	if prior, err := s.runs.GetRunByCommit(ctx, head.SHA); err != nil {
		return nil, fmt.Errorf("checking run history for %s: %w", head.SHA, err)
	} else if prior != nil {
		slog.Info("commit already processed", "commit", head.ShortSHA(), "run", prior.ID)
		return prior, nil
	}

	diff, err := s.diffs.GetDiff(ctx, s.pathScope)
	if err != nil {
		return nil, fmt.Errorf("fetching diff for %s: %w", head.SHA, err)
	}

	verdict := s.classifier.Classify(diff)

	run := model.DriftRun{
		CommitSHA:   head.SHA,
		CommitTitle: head.Message,
		HasDrift:    verdict.HasDrift,
		FileCount:   len(verdict.ChangedFiles),
		ChangeCount: len(verdict.Changes),
		RanAt:       time.Now().UTC(),
	}

	if verdict.HasDrift {
		run.SessionURL = s.dispatchSession(ctx, *head, verdict)
		s.notify(ctx, *head, verdict, run.SessionURL)
	}

	id, err := s.runs.RecordRun(ctx, run, verdict.Changes)
	if err != nil {
		return nil, fmt.Errorf("recording run for %s: %w", head.SHA, err)
	}
	run.ID = id

	slog.Info("classification pass complete",
		"commit", head.ShortSHA(),
		"has_drift", verdict.HasDrift,
		"files", len(verdict.ChangedFiles),
		"changes", len(verdict.Changes),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return &run, nil
}

// dispatchSession creates a remediation session for the verdict and returns
// its URL. The session client retries once internally; a terminal failure is
// logged and reported through an empty URL, never a crash.
func (s *DriftService) dispatchSession(ctx context.Context, head model.Commit, verdict model.DriftVerdict) string {
	if s.sessions == nil {
		return ""
	}

	session, err := s.sessions.CreateSession(ctx, report.SessionPrompt(s.repo, head, verdict))
	if err != nil {
		slog.Error("session dispatch failed", "commit", head.ShortSHA(), "error", err)
		return ""
	}

	slog.Info("remediation session created", "commit", head.ShortSHA(), "session", session.ID)
	return session.URL
}

// notify renders and delivers the drift summary. Delivery failures are logged
// and do not affect the pass.
func (s *DriftService) notify(ctx context.Context, head model.Commit, verdict model.DriftVerdict, sessionURL string) {
	if s.notifier == nil {
		return
	}

	payload := report.DriftSummary(s.repo, head, verdict, sessionURL)
	if err := s.notifier.Deliver(ctx, payload); err != nil {
		slog.Error("notification delivery failed", "commit", head.ShortSHA(), "error", err)
	}
}
