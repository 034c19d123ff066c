// Package postgres provides the PostgreSQL dialect for the SQL store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/campuslostfound/lostfound/internal/store/migrations"
	"github.com/campuslostfound/lostfound/internal/store/sqlstore"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres-backed store on an existing connection.
func NewWithDB(db *sql.DB) *sqlstore.Store { return sqlstore.New(db, Dialect{}) }

// Bootstrap opens dsn, applies migrations and returns the ready store.
func Bootstrap(ctx context.Context, dsn string) (*sqlstore.Store, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(ctx, db, "postgres"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

// Dialect implements sqlstore.Dialect for PostgreSQL.
type Dialect struct{}

func (Dialect) Name() string                      { return "postgres" }
func (Dialect) Placeholder() sq.PlaceholderFormat { return sq.Dollar }

func (Dialect) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// LeaseQuery claims ready rows with SKIP LOCKED so concurrent workers never share a job.
func (Dialect) LeaseQuery(now, until time.Time, n int) (string, []interface{}) {
	return `
        UPDATE outbox SET status = 'leased', lease_until = $1, update_time = $2
        WHERE id IN (
            SELECT id FROM outbox
            WHERE (status = 'pending' AND next_attempt_at <= $2)
               OR (status = 'leased' AND lease_until < $2)
            ORDER BY id
            FOR UPDATE SKIP LOCKED
            LIMIT $3
        )
        RETURNING id, op, aggregate_id, payload, attempt_count
    `, []interface{}{until, now, n}
}
