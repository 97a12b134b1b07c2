// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	GitHubToken   string
	Repo          string // owner/name of the watched repository.
	BaseBranch    string
	APIPathScope  string // Subtree scanned for API-relevant changes.
	DriftLabel    string // Label selecting drift proposals on the host.
	SessionURL    string // Agent service endpoint; empty disables dispatch.
	SessionToken  string
	WebhookURL    string // Notification sink; empty disables delivery.
	WebhookFormat string // "text" or "html".
	DBPath        string
	MinBatchSize  int
}

// DefaultDBPath is the history database location when DRIFTWATCH_DB_PATH is
// unset.
const DefaultDBPath = "driftwatch.db"

// HasSessionService returns true when a session endpoint is configured.
func (c *Config) HasSessionService() bool {
	return c.SessionURL != ""
}

// HasWebhook returns true when a notification webhook is configured.
func (c *Config) HasWebhook() bool {
	return c.WebhookURL != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. DRIFTWATCH_GITHUB_TOKEN and DRIFTWATCH_REPO are required. Optional
// variables with defaults: DRIFTWATCH_BASE_BRANCH (main), DRIFTWATCH_API_PATH
// (backend/app/api), DRIFTWATCH_DRIFT_LABEL (api-drift), DRIFTWATCH_DB_PATH
// (driftwatch.db), DRIFTWATCH_MIN_BATCH (3), DRIFTWATCH_WEBHOOK_FORMAT
// (text; html adds a sanitized HTML fragment). DRIFTWATCH_SESSION_URL,
// DRIFTWATCH_SESSION_TOKEN, and DRIFTWATCH_WEBHOOK_URL are optional; the
// corresponding steps are skipped when absent.
func Load() (*Config, error) {
	token := os.Getenv("DRIFTWATCH_GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("DRIFTWATCH_GITHUB_TOKEN is required")
	}

	repo := os.Getenv("DRIFTWATCH_REPO")
	if repo == "" {
		return nil, fmt.Errorf("DRIFTWATCH_REPO is required")
	}
	if parts := strings.Split(repo, "/"); len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("DRIFTWATCH_REPO has invalid value %q: expected owner/repo", repo)
	}

	baseBranch := "main"
	if v, ok := os.LookupEnv("DRIFTWATCH_BASE_BRANCH"); ok {
		baseBranch = v
	}

	apiPath := "backend/app/api"
	if v, ok := os.LookupEnv("DRIFTWATCH_API_PATH"); ok {
		apiPath = v
	}

	driftLabel := "api-drift"
	if v, ok := os.LookupEnv("DRIFTWATCH_DRIFT_LABEL"); ok {
		driftLabel = v
	}

	dbPath := DefaultDBPath
	if v, ok := os.LookupEnv("DRIFTWATCH_DB_PATH"); ok {
		dbPath = v
	}

	webhookFormat := "text"
	if v, ok := os.LookupEnv("DRIFTWATCH_WEBHOOK_FORMAT"); ok {
		if v != "text" && v != "html" {
			return nil, fmt.Errorf("DRIFTWATCH_WEBHOOK_FORMAT has invalid value %q: expected text or html", v)
		}
		webhookFormat = v
	}

	minBatch := 3
	if v, ok := os.LookupEnv("DRIFTWATCH_MIN_BATCH"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("DRIFTWATCH_MIN_BATCH has invalid value %q: expected positive integer", v)
		}
		minBatch = parsed
	}

	return &Config{
		GitHubToken:   token,
		Repo:          repo,
		BaseBranch:    baseBranch,
		APIPathScope:  apiPath,
		DriftLabel:    driftLabel,
		SessionURL:    os.Getenv("DRIFTWATCH_SESSION_URL"),
		SessionToken:  os.Getenv("DRIFTWATCH_SESSION_TOKEN"),
		WebhookURL:    os.Getenv("DRIFTWATCH_WEBHOOK_URL"),
		WebhookFormat: webhookFormat,
		DBPath:        dbPath,
		MinBatchSize:  minBatch,
	}, nil
}
