// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/apidrift/driftwatch/internal/domain/model"
	"github.com/apidrift/driftwatch/internal/domain/port/driven"
	"github.com/apidrift/driftwatch/internal/report"
)

// Ineligibility reasons produced by Plan.
const (
	ReasonInsufficientCandidates = "insufficient high-confidence candidates"
	ReasonOverlappingFiles       = "overlapping files"
)

// DefaultMinBatchSize is the smallest candidate set worth batching.
const DefaultMinBatchSize = 3

// ConsolidationService plans and executes the batching of accumulated
// high-confidence proposals into one integration branch and one batch
// proposal. At most one consolidation pass may run at a time against the same
// repository; that exclusion is an operator precondition, not enforced here.
type ConsolidationService struct {
	store    driven.ProposalStore
	attempts driven.AttemptStore
	label    string // Label selecting drift proposals in the store.
	minBatch int
	now      func() time.Time
}

// NewConsolidationService creates a ConsolidationService. minBatch values
// below 1 fall back to DefaultMinBatchSize.
func NewConsolidationService(store driven.ProposalStore, attempts driven.AttemptStore, label string, minBatch int) *ConsolidationService {
	if minBatch < 1 {
		minBatch = DefaultMinBatchSize
	}
	return &ConsolidationService{
		store:    store,
		attempts: attempts,
		label:    label,
		minBatch: minBatch,
		now:      time.Now,
	}
}

// Plan decides whether the given open proposals can be safely batched.
// Only high-confidence proposals are considered; fewer than the minimum is a
// normal negative result, as is any file touched by two candidates. The
// planner never attempts path-level merging -- overlap is unsafe regardless of
// whether the content actually conflicts.
func (s *ConsolidationService) Plan(open []model.Proposal) model.ConsolidationPlan {
	var candidates []model.Proposal
	for _, p := range open {
		if p.ConfidenceLabel == model.ConfidenceLabelHighOnly {
			candidates = append(candidates, p)
		}
	}

	if len(candidates) < s.minBatch {
		return model.ConsolidationPlan{
			Reason: fmt.Sprintf("%s: have %d, need %d", ReasonInsufficientCandidates, len(candidates), s.minBatch),
		}
	}

	claimedBy := make(map[string]int)
	for _, p := range candidates {
		for _, path := range p.TouchedPaths {
			if other, taken := claimedBy[path]; taken {
				return model.ConsolidationPlan{
					Reason: fmt.Sprintf("%s: %s claimed by #%d and #%d", ReasonOverlappingFiles, path, other, p.Number),
				}
			}
			claimedBy[path] = p.Number
		}
	}

	// Creation order is the merge order; number breaks ties so repeated runs
	// over the same snapshot produce the same sequence.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].Number < candidates[j].Number
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	return model.ConsolidationPlan{Eligible: true, Candidates: candidates}
}

// Execute performs an eligible plan: create an integration branch from the
// tip of baseRef, merge each candidate's branch in order, and on success open
// the batch proposal and close the consumed candidates. Any failure before
// the batch proposal exists rolls the whole attempt back -- the integration
// branch is deleted and no candidate's state changes.
//
// Calling Execute with an ineligible plan is a contract violation and returns
// an error without touching the store.
func (s *ConsolidationService) Execute(ctx context.Context, plan model.ConsolidationPlan, baseRef string) (model.ConsolidationResult, error) {
	if !plan.Eligible {
		return model.ConsolidationResult{}, fmt.Errorf("execute called on ineligible plan: %s", plan.Reason)
	}

	branch := fmt.Sprintf("docs/consolidation-%s", s.now().UTC().Format("20060102-150405"))

	if err := s.store.CreateBranch(ctx, branch, baseRef); err != nil {
		// Nothing was created; no rollback needed.
		return model.ConsolidationResult{
			Failed:        true,
			FailureReason: fmt.Sprintf("creating integration branch from %s: %v", baseRef, err),
		}, nil
	}

	for i, cand := range plan.Candidates {
		msg := fmt.Sprintf("Consolidate #%d: %s", cand.Number, cand.Title)
		if err := s.store.MergeBranch(ctx, branch, cand.Branch, msg); err != nil {
			s.rollback(ctx, branch)
			return model.ConsolidationResult{
				Failed:        true,
				FailureReason: fmt.Sprintf("integrating candidate %d (#%d %s): %v", i+1, cand.Number, cand.Branch, err),
			}, nil
		}
		slog.Info("candidate integrated", "branch", branch, "candidate", cand.Number, "position", i+1)
	}

	batch, err := s.store.CreateProposal(ctx, driven.NewProposal{
		Title:  fmt.Sprintf("Consolidated documentation updates (%d change-sets)", len(plan.Candidates)),
		Body:   report.ConsolidatedBody(plan.Candidates),
		Head:   branch,
		Base:   baseRef,
		Labels: []string{s.label, "consolidated"},
	})
	if err != nil {
		s.rollback(ctx, branch)
		return model.ConsolidationResult{
			Failed:        true,
			FailureReason: fmt.Sprintf("opening batch proposal from %s: %v", branch, err),
		}, nil
	}

	// The batch proposal now exists; it is the significant side effect and is
	// never undone by a downstream close or comment hiccup. Closes are a
	// best-effort batch.
	merged := make([]int, 0, len(plan.Candidates))
	for _, cand := range plan.Candidates {
		merged = append(merged, cand.Number)

		comment := fmt.Sprintf("Consolidated into #%d (%s).", batch.Number, batch.URL)
		if err := s.store.CreateComment(ctx, cand.Number, comment); err != nil {
			slog.Error("comment on consumed proposal failed", "proposal", cand.Number, "error", err)
		}
		if err := s.store.CloseProposal(ctx, cand.Number); err != nil {
			slog.Error("close of consumed proposal failed", "proposal", cand.Number, "error", err)
		}
	}

	slog.Info("consolidation complete",
		"batch", batch.Number,
		"candidates", len(merged),
		"branch", branch,
	)

	return model.ConsolidationResult{
		Batch:            batch,
		MergedCandidates: merged,
	}, nil
}

// Run performs one full consolidation pass: snapshot open proposals, plan,
// execute when eligible, and record the attempt. Ineligibility is a normal
// outcome and is recorded as a non-failed attempt.
func (s *ConsolidationService) Run(ctx context.Context, baseRef string) (model.ConsolidationResult, error) {
	open, err := s.store.ListOpenProposals(ctx, s.label)
	if err != nil {
		return model.ConsolidationResult{}, fmt.Errorf("listing open proposals: %w", err)
	}

	plan := s.Plan(open)
	if !plan.Eligible {
		slog.Info("consolidation not attempted", "reason", plan.Reason, "open", len(open))
		s.recordAttempt(ctx, model.ConsolidationAttempt{
			FailureReason: plan.Reason,
			AttemptedAt:   s.now().UTC(),
		})
		return model.ConsolidationResult{Failed: false, FailureReason: plan.Reason}, nil
	}

	result, err := s.Execute(ctx, plan, baseRef)
	if err != nil {
		return result, err
	}

	attempt := model.ConsolidationAttempt{
		Eligible:      true,
		Failed:        result.Failed,
		FailureReason: result.FailureReason,
		AttemptedAt:   s.now().UTC(),
	}
	for _, c := range plan.Candidates {
		attempt.CandidateNumbers = append(attempt.CandidateNumbers, c.Number)
	}
	if result.Batch != nil {
		attempt.BatchNumber = result.Batch.Number
	}
	s.recordAttempt(ctx, attempt)

	return result, nil
}

// rollback deletes the integration branch. Deletion is best-effort: a failure
// to delete is logged and does not change the attempt's outcome.
func (s *ConsolidationService) rollback(ctx context.Context, branch string) {
	if err := s.store.DeleteBranch(ctx, branch); err != nil {
		slog.Error("integration branch cleanup failed", "branch", branch, "error", err)
	}
}

// recordAttempt persists the attempt for audit; history is advisory, so a
// store failure is logged rather than surfaced.
func (s *ConsolidationService) recordAttempt(ctx context.Context, attempt model.ConsolidationAttempt) {
	if s.attempts == nil {
		return
	}
	if err := s.attempts.RecordAttempt(ctx, attempt); err != nil {
		slog.Error("record consolidation attempt failed", "error", err)
	}
}
