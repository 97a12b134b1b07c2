package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every DRIFTWATCH_ env var that Load() reads.
var allConfigKeys = []string{
	"DRIFTWATCH_GITHUB_TOKEN",
	"DRIFTWATCH_REPO",
	"DRIFTWATCH_BASE_BRANCH",
	"DRIFTWATCH_API_PATH",
	"DRIFTWATCH_DRIFT_LABEL",
	"DRIFTWATCH_SESSION_URL",
	"DRIFTWATCH_SESSION_TOKEN",
	"DRIFTWATCH_WEBHOOK_URL",
	"DRIFTWATCH_WEBHOOK_FORMAT",
	"DRIFTWATCH_DB_PATH",
	"DRIFTWATCH_MIN_BATCH",
}

// isolateConfigEnv saves and unsets all DRIFTWATCH_ env vars so tests don't
// inherit values from the host environment. t.Cleanup restores original
// values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DRIFTWATCH_GITHUB_TOKEN", "ghp_test123")
	t.Setenv("DRIFTWATCH_REPO", "owner/service")
	t.Setenv("DRIFTWATCH_BASE_BRANCH", "develop")
	t.Setenv("DRIFTWATCH_API_PATH", "src/api")
	t.Setenv("DRIFTWATCH_DRIFT_LABEL", "docs-drift")
	t.Setenv("DRIFTWATCH_SESSION_URL", "https://agent.example.com")
	t.Setenv("DRIFTWATCH_SESSION_TOKEN", "sk-test")
	t.Setenv("DRIFTWATCH_WEBHOOK_URL", "https://hooks.example.com/abc")
	t.Setenv("DRIFTWATCH_WEBHOOK_FORMAT", "html")
	t.Setenv("DRIFTWATCH_DB_PATH", "/tmp/test.db")
	t.Setenv("DRIFTWATCH_MIN_BATCH", "5")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "ghp_test123", cfg.GitHubToken)
	assert.Equal(t, "owner/service", cfg.Repo)
	assert.Equal(t, "develop", cfg.BaseBranch)
	assert.Equal(t, "src/api", cfg.APIPathScope)
	assert.Equal(t, "docs-drift", cfg.DriftLabel)
	assert.Equal(t, "https://agent.example.com", cfg.SessionURL)
	assert.Equal(t, "sk-test", cfg.SessionToken)
	assert.Equal(t, "https://hooks.example.com/abc", cfg.WebhookURL)
	assert.Equal(t, "html", cfg.WebhookFormat)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, 5, cfg.MinBatchSize)
	assert.True(t, cfg.HasSessionService())
	assert.True(t, cfg.HasWebhook())
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DRIFTWATCH_GITHUB_TOKEN", "ghp_test123")
	t.Setenv("DRIFTWATCH_REPO", "owner/service")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "main", cfg.BaseBranch)
	assert.Equal(t, "backend/app/api", cfg.APIPathScope)
	assert.Equal(t, "api-drift", cfg.DriftLabel)
	assert.Equal(t, "text", cfg.WebhookFormat)
	assert.Equal(t, DefaultDBPath, cfg.DBPath)
	assert.Equal(t, 3, cfg.MinBatchSize)
	assert.False(t, cfg.HasSessionService())
	assert.False(t, cfg.HasWebhook())
}

func TestLoad_MissingToken(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DRIFTWATCH_REPO", "owner/service")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DRIFTWATCH_GITHUB_TOKEN")
}

func TestLoad_MissingRepo(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DRIFTWATCH_GITHUB_TOKEN", "ghp_test123")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DRIFTWATCH_REPO")
}

func TestLoad_MalformedRepo(t *testing.T) {
	for _, repo := range []string{"owner", "owner/", "/repo", "a/b/c"} {
		t.Run(repo, func(t *testing.T) {
			isolateConfigEnv(t)
			t.Setenv("DRIFTWATCH_GITHUB_TOKEN", "ghp_test123")
			t.Setenv("DRIFTWATCH_REPO", repo)

			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_InvalidWebhookFormat(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DRIFTWATCH_GITHUB_TOKEN", "ghp_test123")
	t.Setenv("DRIFTWATCH_REPO", "owner/service")
	t.Setenv("DRIFTWATCH_WEBHOOK_FORMAT", "xml")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DRIFTWATCH_WEBHOOK_FORMAT")
}

func TestLoad_InvalidMinBatch(t *testing.T) {
	for _, v := range []string{"zero", "0", "-1"} {
		t.Run(v, func(t *testing.T) {
			isolateConfigEnv(t)
			t.Setenv("DRIFTWATCH_GITHUB_TOKEN", "ghp_test123")
			t.Setenv("DRIFTWATCH_REPO", "owner/service")
			t.Setenv("DRIFTWATCH_MIN_BATCH", v)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "DRIFTWATCH_MIN_BATCH")
		})
	}
}
