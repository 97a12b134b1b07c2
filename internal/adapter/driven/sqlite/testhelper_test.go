package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"
)

// openTestDB returns a migrated DB whose writer and reader share one named
// in-memory database. cache=shared keeps both connections on the same
// instance, and naming the database after the test keeps packages running in
// parallel from seeing each other's rows. The journal_mode pragma is dropped:
// WAL has no meaning in memory. foreign_keys stays on because change_records
// references drift_runs.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)",
		url.PathEscape(t.Name()),
	)

	writer := openTestConn(t, dsn, 1)
	reader := openTestConn(t, dsn, 4)

	db := &DB{Writer: writer, Reader: reader, path: dsn}
	t.Cleanup(func() { _ = db.Close() })

	if err := RunMigrations(db.Writer); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return db
}

func openTestConn(t *testing.T, dsn string, maxConns int) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open test db (%d conns): %v", maxConns, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	conn.SetMaxOpenConns(maxConns)

	// Ping now so a bad DSN fails in the helper, not in the first query.
	if err := conn.PingContext(context.Background()); err != nil {
		t.Fatalf("ping test db (%d conns): %v", maxConns, err)
	}

	return conn
}
