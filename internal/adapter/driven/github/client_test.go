package github_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ghAdapter "github.com/apidrift/driftwatch/internal/adapter/driven/github"
	"github.com/apidrift/driftwatch/internal/domain/model"
	"github.com/apidrift/driftwatch/internal/domain/port/driven"
)

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler) *ghAdapter.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := ghAdapter.NewClientWithHTTPClient(
		server.Client(),
		server.URL+"/",
		"owner/repo",
		"main",
	)
	require.NoError(t, err)

	return client
}

// prJSON is a helper struct for building GitHub API pull request responses.
type prJSON struct {
	Number   int       `json:"number"`
	Title    string    `json:"title"`
	State    string    `json:"state"`
	HTMLURL  string    `json:"html_url"`
	Body     string    `json:"body"`
	Head     refJSON   `json:"head"`
	Base     refJSON   `json:"base"`
	Labels   []lblJSON `json:"labels"`
	Created  string    `json:"created_at,omitempty"`
	MergedAt *string   `json:"merged_at,omitempty"`
}

type refJSON struct {
	Ref string `json:"ref"`
	SHA string `json:"sha,omitempty"`
}

type lblJSON struct {
	Name string `json:"name"`
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestListOpenProposals_FiltersByLabel(t *testing.T) {
	prs := []prJSON{
		{
			Number:  1,
			Title:   "Update docs for items endpoint",
			State:   "open",
			HTMLURL: "https://github.com/owner/repo/pull/1",
			Body:    "Changes `docs/items.md`.\n\nTriggered by: commit abc1234\n",
			Head:    refJSON{Ref: "docs/update-1"},
			Base:    refJSON{Ref: "main"},
			Labels:  []lblJSON{{Name: "api-drift"}, {Name: "high-confidence"}},
			Created: "2026-08-01T00:00:00Z",
		},
		{
			Number:  2,
			Title:   "Unrelated feature",
			State:   "open",
			HTMLURL: "https://github.com/owner/repo/pull/2",
			Head:    refJSON{Ref: "feature-x"},
			Base:    refJSON{Ref: "main"},
			Labels:  []lblJSON{{Name: "enhancement"}},
			Created: "2026-08-02T00:00:00Z",
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/owner/repo/pulls", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "open", r.URL.Query().Get("state"))
		writeJSON(t, w, prs)
	})

	client := newTestClient(t, mux)

	got, err := client.ListOpenProposals(context.Background(), "api-drift")
	require.NoError(t, err)
	require.Len(t, got, 1)

	p := got[0]
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, "Update docs for items endpoint", p.Title)
	assert.Equal(t, "docs/update-1", p.Branch)
	assert.Equal(t, "main", p.BaseBranch)
	assert.Equal(t, model.ProposalStateOpen, p.State)

	// The proposal is enriched from its body and labels.
	assert.Equal(t, []string{"docs/items.md"}, p.TouchedPaths)
	assert.Equal(t, "abc1234", p.TriggeringRef)
	assert.Equal(t, model.ConfidenceLabelHighOnly, p.ConfidenceLabel)
}

func TestListOpenProposals_Pagination(t *testing.T) {
	var serverURL string

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/owner/repo/pulls", func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if page == "" || page == "1" {
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/owner/repo/pulls?page=2>; rel="next"`, serverURL))
			writeJSON(t, w, []prJSON{{
				Number: 1, State: "open", Labels: []lblJSON{{Name: "api-drift"}},
				Head: refJSON{Ref: "a"}, Base: refJSON{Ref: "main"}, Created: "2026-08-01T00:00:00Z",
			}})
			return
		}
		writeJSON(t, w, []prJSON{{
			Number: 2, State: "open", Labels: []lblJSON{{Name: "api-drift"}},
			Head: refJSON{Ref: "b"}, Base: refJSON{Ref: "main"}, Created: "2026-08-02T00:00:00Z",
		}})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	serverURL = server.URL

	client, err := ghAdapter.NewClientWithHTTPClient(server.Client(), server.URL+"/", "owner/repo", "main")
	require.NoError(t, err)

	got, err := client.ListOpenProposals(context.Background(), "api-drift")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, 2, got[1].Number)
}

func TestGetHeadCommit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/owner/repo/commits/main", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"sha":    "abc1234def",
			"commit": map[string]any{"message": "feat: add items endpoint\n\nbody"},
		})
	})

	client := newTestClient(t, mux)

	commit, err := client.GetHeadCommit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc1234def", commit.SHA)
	assert.Equal(t, "feat: add items endpoint\n\nbody", commit.Message)
}

func TestGetDiff_RootCommitHasNoDiff(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/owner/repo/commits/main", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"sha": "abc1234def", "parents": []any{}})
	})

	client := newTestClient(t, mux)

	diff, err := client.GetDiff(context.Background(), "backend/app/api")
	require.NoError(t, err)
	assert.Empty(t, diff)
}

func TestGetDiff_ScopesToWatchedSubtree(t *testing.T) {
	const rawDiff = "diff --git a/backend/app/api/routes/items.py b/backend/app/api/routes/items.py\n" +
		"+@router.post(\"/items/\")\n" +
		"diff --git a/frontend/src/app.ts b/frontend/src/app.ts\n" +
		"+const x = 1\n"

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/owner/repo/commits/main", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"sha":     "abc1234def",
			"parents": []any{map[string]any{"sha": "parent111"}},
		})
	})
	mux.HandleFunc("GET /repos/owner/repo/commits/abc1234def", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept"), "diff")
		_, _ = io.WriteString(w, rawDiff)
	})

	client := newTestClient(t, mux)

	diff, err := client.GetDiff(context.Background(), "backend/app/api")
	require.NoError(t, err)
	assert.Contains(t, diff, "items.py")
	assert.Contains(t, diff, "@router.post")
	assert.NotContains(t, diff, "frontend")
}

func TestCreateBranch(t *testing.T) {
	var created struct {
		Ref string `json:"ref"`
		SHA string `json:"sha"`
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/owner/repo/git/ref/heads/main", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"ref":    "refs/heads/main",
			"object": map[string]any{"sha": "abc1234def", "type": "commit"},
		})
	})
	mux.HandleFunc("POST /repos/owner/repo/git/refs", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		w.WriteHeader(http.StatusCreated)
		writeJSON(t, w, map[string]any{"ref": created.Ref})
	})

	client := newTestClient(t, mux)

	err := client.CreateBranch(context.Background(), "docs/consolidation-20260820-120000", "main")
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/docs/consolidation-20260820-120000", created.Ref)
	assert.Equal(t, "abc1234def", created.SHA)
}

func TestDeleteBranch_AlreadyAbsentIsNotAnError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /repos/owner/repo/git/refs/heads/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(t, w, map[string]any{"message": "Reference does not exist"})
	})

	client := newTestClient(t, mux)

	require.NoError(t, client.DeleteBranch(context.Background(), "gone"))
}

func TestMergeBranch_Success(t *testing.T) {
	var merged struct {
		Base          string `json:"base"`
		Head          string `json:"head"`
		CommitMessage string `json:"commit_message"`
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/owner/repo/merges", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&merged))
		w.WriteHeader(http.StatusCreated)
		writeJSON(t, w, map[string]any{"sha": "merge111"})
	})

	client := newTestClient(t, mux)

	err := client.MergeBranch(context.Background(), "batch-branch", "docs/update-1", "Integrate #1")
	require.NoError(t, err)
	assert.Equal(t, "batch-branch", merged.Base)
	assert.Equal(t, "docs/update-1", merged.Head)
	assert.Equal(t, "Integrate #1", merged.CommitMessage)
}

func TestMergeBranch_ConflictIsStructured(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/owner/repo/merges", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		writeJSON(t, w, map[string]any{"message": "Merge conflict"})
	})

	client := newTestClient(t, mux)

	err := client.MergeBranch(context.Background(), "batch-branch", "docs/update-2", "Integrate #2")
	require.Error(t, err)
	assert.ErrorIs(t, err, driven.ErrMergeConflict)
}

func TestCreateProposal(t *testing.T) {
	var labeled []string

	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/owner/repo/pulls", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title string `json:"title"`
			Head  string `json:"head"`
			Base  string `json:"base"`
			Body  string `json:"body"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Consolidated documentation updates", req.Title)
		assert.Equal(t, "batch-branch", req.Head)
		assert.Equal(t, "main", req.Base)

		w.WriteHeader(http.StatusCreated)
		writeJSON(t, w, prJSON{
			Number:  100,
			Title:   req.Title,
			State:   "open",
			HTMLURL: "https://github.com/owner/repo/pull/100",
			Head:    refJSON{Ref: req.Head},
			Base:    refJSON{Ref: req.Base},
			Created: "2026-08-20T00:00:00Z",
		})
	})
	mux.HandleFunc("POST /repos/owner/repo/issues/100/labels", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&labeled))
		writeJSON(t, w, []lblJSON{})
	})

	client := newTestClient(t, mux)

	p, err := client.CreateProposal(context.Background(), driven.NewProposal{
		Title:  "Consolidated documentation updates",
		Body:   "Consolidates 3 change-sets.",
		Head:   "batch-branch",
		Base:   "main",
		Labels: []string{"api-drift", "consolidated"},
	})
	require.NoError(t, err)
	assert.Equal(t, 100, p.Number)
	assert.Equal(t, []string{"api-drift", "consolidated"}, labeled)
	assert.True(t, p.HasLabel("consolidated"))
}

func TestCloseProposal(t *testing.T) {
	var patched struct {
		State string `json:"state"`
	}

	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /repos/owner/repo/pulls/5", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
		writeJSON(t, w, prJSON{Number: 5, State: "closed"})
	})

	client := newTestClient(t, mux)

	require.NoError(t, client.CloseProposal(context.Background(), 5))
	assert.Equal(t, "closed", patched.State)
}

func TestNewClient_RejectsMalformedRepoName(t *testing.T) {
	for _, name := range []string{"", "owner", "owner/", "/repo"} {
		t.Run(strings.ReplaceAll(name, "/", "_"), func(t *testing.T) {
			_, err := ghAdapter.NewClient("token", name, "main")
			require.Error(t, err)
		})
	}
}
