// Command driftwatch runs one classification pass: it fetches the watched
// branch's head diff, classifies API-relevant changes, records the run, and
// on drift dispatches a remediation session and a notification.
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
	sessionadapter "github.com/apidrift/driftwatch/internal/adapter/driven/session"
	sqliteadapter "github.com/apidrift/driftwatch/internal/adapter/driven/sqlite"
	"github.com/apidrift/driftwatch/internal/application"
	"github.com/apidrift/driftwatch/internal/config"
	"github.com/apidrift/driftwatch/internal/domain/model"
	"github.com/apidrift/driftwatch/internal/domain/port/driven"
	"github.com/apidrift/driftwatch/internal/report"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"repo", cfg.Repo,
		"base_branch", cfg.BaseBranch,
		"api_path", cfg.APIPathScope,
		"db_path", cfg.DBPath,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database and run migrations on the writer connection.
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

	// 4. Wire adapters.
	ghClient, err := githubadapter.NewClient(cfg.GitHubToken, cfg.Repo, cfg.BaseBranch)
	if err != nil {
		return err
	}
	runStore := sqliteadapter.NewRunRepo(db)

	var sessions driven.SessionService
	if cfg.HasSessionService() {
		sessions = sessionadapter.NewClient(cfg.SessionURL, cfg.SessionToken)
	} else {
		slog.Info("no session service configured, remediation dispatch disabled")
	}

	var notifier driven.NotificationSink
	if cfg.HasWebhook() {
		notifier = notify.NewWebhook(cfg.WebhookURL, notify.Format(cfg.WebhookFormat))
	} else {
		slog.Info("no webhook configured, notifications disabled")
	}

	// 5. Run the pass.
	svc := application.NewDriftService(ghClient, runStore, sessions, notifier, cfg.Repo, cfg.APIPathScope)

	drift, err := svc.RunOnce(ctx)
	if err != nil {
		return err
	}

	// 6. Emit the verdict in its published JSON shape, rebuilt from the
	// persisted records so the skipped-commit path emits the same artifact.
	changes, err := runStore.GetChanges(ctx, drift.ID)
	if err != nil {
		return err
	}
	out, err := report.VerdictJSON(model.NewDriftVerdict(changes))
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(out))

	return nil
}
