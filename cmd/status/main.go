// Command status prints recent classification runs and consolidation
// attempts from the local history database.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	sqliteadapter "github.com/apidrift/driftwatch/internal/adapter/driven/sqlite"
	"github.com/apidrift/driftwatch/internal/config"
	"github.com/apidrift/driftwatch/internal/report"
)

// historyLimit caps both tables; the history is an audit aid, not an archive
// browser.
const historyLimit = 20

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Status only reads the local database, so it takes just the DB path and
	// not the full pass configuration.
	dbPath := config.DefaultDBPath
	if v, ok := os.LookupEnv("DRIFTWATCH_DB_PATH"); ok {
		dbPath = v
	}

	db, err := sqliteadapter.NewDB(dbPath)
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

	ctx := context.Background()

	runs, err := sqliteadapter.NewRunRepo(db).ListRecentRuns(ctx, historyLimit)
	if err != nil {
		return err
	}
	attempts, err := sqliteadapter.NewAttemptRepo(db).ListRecentAttempts(ctx, historyLimit)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "## Recent classification runs\n\n%s\n", report.RunHistory(runs))
	fmt.Fprintf(os.Stdout, "## Recent consolidation attempts\n\n%s", report.AttemptHistory(attempts))

	return nil
}
