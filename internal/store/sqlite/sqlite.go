// Package sqlite provides the embedded SQLite dialect for the SQL store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/campuslostfound/lostfound/internal/store/migrations"
	"github.com/campuslostfound/lostfound/internal/store/sqlstore"
)

// Open opens (creating if needed) the database at path. Use ":memory:" for tests.
// The pool is limited to one connection, which serialises writers and keeps an
// in-memory database shared by every caller.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	if path != ":memory:" {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	q.Set("_time_format", "sqlite")

	db, err := sql.Open("sqlite", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a SQLite-backed store on an existing connection.
func NewWithDB(db *sql.DB) *sqlstore.Store { return sqlstore.New(db, Dialect{}) }

// Bootstrap opens path, applies migrations and returns the ready store.
func Bootstrap(ctx context.Context, path string) (*sqlstore.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(ctx, db, "sqlite"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

// Dialect implements sqlstore.Dialect for SQLite.
type Dialect struct{}

func (Dialect) Name() string                      { return "sqlite" }
func (Dialect) Placeholder() sq.PlaceholderFormat { return sq.Question }

func (Dialect) IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// LeaseQuery relies on the single-connection pool for exclusivity.
func (Dialect) LeaseQuery(now, until time.Time, n int) (string, []interface{}) {
	return `
        UPDATE outbox SET status = 'leased', lease_until = ?, update_time = ?
        WHERE id IN (
            SELECT id FROM outbox
            WHERE (status = 'pending' AND next_attempt_at <= ?)
               OR (status = 'leased' AND lease_until < ?)
            ORDER BY id
            LIMIT ?
        )
        RETURNING id, op, aggregate_id, payload, attempt_count
    `, []interface{}{until, now, now, now, n}
}
