// Package github implements the ProposalStore and DiffSource ports using the
// go-github library.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/apidrift/driftwatch/internal/domain/model"
	"github.com/apidrift/driftwatch/internal/domain/port/driven"
	"github.com/apidrift/driftwatch/internal/extract"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.ProposalStore = (*Client)(nil)
	_ driven.DiffSource    = (*Client)(nil)
)

// Client implements the driven.ProposalStore and driven.DiffSource ports
// against one watched repository.
type Client struct {
	gh     *gh.Client
	owner  string
	repo   string
	branch string // Branch the DiffSource reads head commits from.
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewClient(token, repoFullName, branch string) (*Client, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Client{
		gh:     client,
		owner:  owner,
		repo:   repo,
		branch: branch,
	}, nil
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, repoFullName, branch string) (*Client, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{
		gh:     client,
		owner:  owner,
		repo:   repo,
		branch: branch,
	}, nil
}

// GetHeadCommit returns the current tip of the watched branch.
func (c *Client) GetHeadCommit(ctx context.Context) (*model.Commit, error) {
	rc, resp, err := c.gh.Repositories.GetCommit(ctx, c.owner, c.repo, c.branch, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching head of %s/%s@%s: %w", c.owner, c.repo, c.branch, err)
	}

	logRateLimit(resp, "head-commit", 0, 1)

	return &model.Commit{
		SHA:     rc.GetSHA(),
		Message: rc.GetCommit().GetMessage(),
	}, nil
}

// GetDiff returns the head commit's unified diff against its parent,
// restricted to pathScope. A root commit (no parent) means there is no prior
// revision and nothing to classify, so it returns "", nil.
func (c *Client) GetDiff(ctx context.Context, pathScope string) (string, error) {
	rc, resp, err := c.gh.Repositories.GetCommit(ctx, c.owner, c.repo, c.branch, nil)
	if err != nil {
		return "", fmt.Errorf("fetching head of %s/%s@%s: %w", c.owner, c.repo, c.branch, err)
	}

	logRateLimit(resp, "head-commit", 0, 1)

	if len(rc.Parents) == 0 {
		return "", nil
	}

	raw, resp, err := c.gh.Repositories.GetCommitRaw(ctx, c.owner, c.repo, rc.GetSHA(), gh.RawOptions{Type: gh.Diff})
	if err != nil {
		return "", fmt.Errorf("fetching diff for %s: %w", rc.GetSHA(), err)
	}

	logRateLimit(resp, "commit-diff", 0, 1)

	return scopeDiff(raw, pathScope), nil
}

// ListOpenProposals returns all open pull requests carrying the given label.
// It handles pagination automatically and maps go-github types to domain
// model types, enriching each proposal from its body text.
func (c *Client) ListOpenProposals(ctx context.Context, label string) ([]model.Proposal, error) {
	opts := &gh.PullRequestListOptions{
		State:     "open",
		Sort:      "created",
		Direction: "asc",
		ListOptions: gh.ListOptions{
			PerPage: 100,
		},
	}

	proposals := []model.Proposal{}

	for {
		prs, resp, err := c.gh.PullRequests.List(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing pull requests for %s/%s (page %d): %w", c.owner, c.repo, opts.Page, err)
		}

		logRateLimit(resp, "pull-requests", opts.Page, len(prs))

		for _, pr := range prs {
			p := mapProposal(pr)
			if label != "" && !p.HasLabel(label) {
				continue
			}
			proposals = append(proposals, p)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return proposals, nil
}

// CreateBranch creates a new branch at the current tip of fromRef.
func (c *Client) CreateBranch(ctx context.Context, name, fromRef string) error {
	baseRef, _, err := c.gh.Git.GetRef(ctx, c.owner, c.repo, "refs/heads/"+fromRef)
	if err != nil {
		return fmt.Errorf("resolving base ref %s: %w", fromRef, err)
	}

	_, _, err = c.gh.Git.CreateRef(ctx, c.owner, c.repo, gh.CreateRef{
		Ref: "refs/heads/" + name,
		SHA: baseRef.GetObject().GetSHA(),
	})
	if err != nil {
		return fmt.Errorf("creating branch %s from %s: %w", name, fromRef, err)
	}

	return nil
}

// DeleteBranch removes a branch. A 404 or 422 from the host means the branch
// is already absent, which is the desired end state, not an error.
func (c *Client) DeleteBranch(ctx context.Context, name string) error {
	resp, err := c.gh.Git.DeleteRef(ctx, c.owner, c.repo, "refs/heads/"+name)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnprocessableEntity) {
			return nil
		}
		return fmt.Errorf("deleting branch %s: %w", name, err)
	}

	return nil
}

// MergeBranch merges head into base with the given commit message. A 409 from
// the host is the structured conflict indication and is reported as
// driven.ErrMergeConflict so the executor can roll back.
func (c *Client) MergeBranch(ctx context.Context, base, head, message string) error {
	_, _, err := c.gh.Repositories.Merge(ctx, c.owner, c.repo, &gh.RepositoryMergeRequest{
		Base:          gh.Ptr(base),
		Head:          gh.Ptr(head),
		CommitMessage: gh.Ptr(message),
	})
	if err != nil {
		var ghErr *gh.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusConflict {
			return fmt.Errorf("merging %s into %s: %w: %s", head, base, driven.ErrMergeConflict, ghErr.Message)
		}
		return fmt.Errorf("merging %s into %s: %w", head, base, err)
	}

	return nil
}

// CreateProposal opens a new pull request and applies its labels. Labeling is
// cosmetic: a label failure after the pull request exists is logged and does
// not fail the creation.
func (c *Client) CreateProposal(ctx context.Context, np driven.NewProposal) (*model.Proposal, error) {
	pr, _, err := c.gh.PullRequests.Create(ctx, c.owner, c.repo, &gh.NewPullRequest{
		Title: gh.Ptr(np.Title),
		Body:  gh.Ptr(np.Body),
		Head:  gh.Ptr(np.Head),
		Base:  gh.Ptr(np.Base),
	})
	if err != nil {
		return nil, fmt.Errorf("creating pull request from %s: %w", np.Head, err)
	}

	if len(np.Labels) > 0 {
		if _, _, err := c.gh.Issues.AddLabelsToIssue(ctx, c.owner, c.repo, pr.GetNumber(), np.Labels); err != nil {
			slog.Error("labeling pull request failed", "pr", pr.GetNumber(), "error", err)
		}
	}

	p := mapProposal(pr)
	p.Labels = append(p.Labels, np.Labels...)
	return &p, nil
}

// CreateComment adds a top-level comment to a pull request (via the Issues API).
func (c *Client) CreateComment(ctx context.Context, number int, body string) error {
	_, _, err := c.gh.Issues.CreateComment(ctx, c.owner, c.repo, number, &gh.IssueComment{
		Body: gh.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("creating comment on #%d: %w", number, err)
	}

	return nil
}

// CloseProposal transitions an open pull request to closed without merging.
func (c *Client) CloseProposal(ctx context.Context, number int) error {
	_, _, err := c.gh.PullRequests.Edit(ctx, c.owner, c.repo, number, &gh.PullRequest{
		State: gh.Ptr("closed"),
	})
	if err != nil {
		return fmt.Errorf("closing #%d: %w", number, err)
	}

	return nil
}

// mapProposal converts a go-github PullRequest to a domain Proposal and
// enriches it with the fields extracted from its body. It uses GetXxx()
// helper methods exclusively to avoid nil pointer panics.
func mapProposal(pr *gh.PullRequest) model.Proposal {
	state := model.ProposalStateOpen
	if !pr.GetMergedAt().IsZero() {
		state = model.ProposalStateMerged
	} else if pr.GetState() == "closed" {
		state = model.ProposalStateClosed
	}

	labels := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, l.GetName())
	}

	p := model.Proposal{
		Number:     pr.GetNumber(),
		Title:      pr.GetTitle(),
		URL:        pr.GetHTMLURL(),
		Body:       pr.GetBody(),
		Branch:     pr.GetHead().GetRef(),
		BaseBranch: pr.GetBase().GetRef(),
		State:      state,
		Labels:     labels,
		CreatedAt:  pr.GetCreatedAt().Time,
		MergedAt:   pr.GetMergedAt().Time,
	}

	return extract.Apply(p, p.Body)
}

// scopeDiff keeps only the per-file sections of a unified diff whose
// destination path falls under scope. An empty scope returns the diff as-is.
func scopeDiff(diff, scope string) string {
	if scope == "" {
		return diff
	}

	prefix := strings.TrimSuffix(scope, "/") + "/"
	var (
		b       strings.Builder
		keeping bool
	)

	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "diff --git ") {
			keeping = false
			fields := strings.Fields(line)
			if len(fields) >= 4 {
				dst := strings.TrimPrefix(fields[3], "b/")
				keeping = strings.HasPrefix(dst, prefix)
			}
		}
		if keeping {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	return b.String()
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// splitRepo splits a "owner/repo" string into its two components.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
