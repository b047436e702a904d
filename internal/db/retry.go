package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	maxRetryAttempts    = 8
	initialRetryBackoff = 25 * time.Millisecond
)

// IsBusyError returns true when the error represents a transient SQLite busy/locked state.
func IsBusyError(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_BUSY_SNAPSHOT:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}

// withRetry runs fn, retrying with backoff while it keeps reporting a
// busy/locked SQLite error. A single writer connection is shared by the
// ingest pipeline, reparse jobs, and the admin API, so contention under
// concurrent jobs is expected rather than exceptional.
func withRetry(fn func() error) error {
	var lastErr error
	backoff := initialRetryBackoff
	for attempt := 0; attempt < maxRetryAttempts; attempt++ {
		err := fn()
		if err == nil || errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if !IsBusyError(err) {
			return err
		}
		lastErr = err
		time.Sleep(backoff)
		if backoff < 800*time.Millisecond {
			backoff *= 2
		}
	}
	return lastErr
}

// ExecContextWithRetry runs ExecContext against sqldb (a *sql.DB or *sql.Tx),
// retrying a few times if SQLite reports a busy/locked state.
func ExecContextWithRetry(ctx context.Context, sqldb Execer, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := withRetry(func() error {
		var execErr error
		res, execErr = sqldb.ExecContext(ctx, query, args...)
		return execErr
	})
	return res, err
}

// QueryRowContextWithRetry runs QueryRowContext against sqldb and invokes
// scan, retrying the whole query+scan if SQLite reports a busy/locked state.
func QueryRowContextWithRetry(ctx context.Context, sqldb Execer, query string, args []any, scan func(*sql.Row) error) error {
	return withRetry(func() error {
		return scan(sqldb.QueryRowContext(ctx, query, args...))
	})
}

// QueryContextWithRetry runs QueryContext against a *sql.DB, retrying the
// query if SQLite reports a busy/locked state. Unlike Exec/QueryRow, a
// *sql.Tx is never the right target here: a transaction holding a read
// cursor across a retried begin would leak its first attempt's rows.
func QueryContextWithRetry(ctx context.Context, sqldb *sql.DB, query string, args ...any) (*sql.Rows, error) {
	var rows *sql.Rows
	err := withRetry(func() error {
		var queryErr error
		rows, queryErr = sqldb.QueryContext(ctx, query, args...)
		return queryErr
	})
	return rows, err
}

// CommitWithRetry commits tx, retrying the commit itself if SQLite reports a
// busy/locked state (the common failure mode when a concurrent writer holds
// the database lock at commit time).
func CommitWithRetry(tx *sql.Tx) error {
	return withRetry(tx.Commit)
}
