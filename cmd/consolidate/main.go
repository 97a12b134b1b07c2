// Command consolidate runs one consolidation pass: it snapshots open drift
// proposals, plans a safe batch, and when eligible merges the candidate
// branches into one integration branch and opens a batch proposal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/apidrift/driftwatch/internal/adapter/driven/github"
	"github.com/apidrift/driftwatch/internal/adapter/driven/notify"
	sqliteadapter "github.com/apidrift/driftwatch/internal/adapter/driven/sqlite"
	"github.com/apidrift/driftwatch/internal/application"
	"github.com/apidrift/driftwatch/internal/config"
	"github.com/apidrift/driftwatch/internal/report"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"repo", cfg.Repo,
		"base_branch", cfg.BaseBranch,
		"drift_label", cfg.DriftLabel,
		"min_batch", cfg.MinBatchSize,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}

	ghClient, err := githubadapter.NewClient(cfg.GitHubToken, cfg.Repo, cfg.BaseBranch)
	if err != nil {
		return err
	}
	attemptStore := sqliteadapter.NewAttemptRepo(db)

	svc := application.NewConsolidationService(ghClient, attemptStore, cfg.DriftLabel, cfg.MinBatchSize)

	result, err := svc.Run(ctx, cfg.BaseBranch)
	if err != nil {
		return err
	}

	summary := report.ConsolidationSummary(result)
	fmt.Fprint(os.Stdout, summary)

	// Consolidation outcomes are worth a notification either way; delivery is
	// best-effort like every other finalization side effect.
	if cfg.HasWebhook() {
		sink := notify.NewWebhook(cfg.WebhookURL, notify.Format(cfg.WebhookFormat))
		if err := sink.Deliver(ctx, summary); err != nil {
			slog.Error("notification delivery failed", "error", err)
		}
	}

	if result.Failed {
		return fmt.Errorf("consolidation rolled back: %s", result.FailureReason)
	}

	return nil
}
