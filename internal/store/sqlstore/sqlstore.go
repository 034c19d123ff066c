// Package sqlstore implements store.Store on database/sql. Driver specifics
// (placeholders, constraint errors, outbox leasing) come from a Dialect supplied
// by the postgres and sqlite packages.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/campuslostfound/lostfound/internal/model"
	"github.com/campuslostfound/lostfound/internal/store"
)

// Dialect captures what differs between SQL backends.
type Dialect interface {
	Name() string
	Placeholder() sq.PlaceholderFormat
	IsUniqueViolation(err error) bool
	// LeaseQuery returns an UPDATE ... RETURNING statement claiming up to n ready outbox rows.
	LeaseQuery(now, until time.Time, n int) (string, []interface{})
}

// New constructs a store.Store backed by db.
func New(db *sql.DB, d Dialect) *Store {
	return &Store{db: db, dialect: d, sb: sq.StatementBuilder.PlaceholderFormat(d.Placeholder())}
}

// Store is the database/sql implementation of store.Store.
type Store struct {
	db      *sql.DB
	dialect Dialect
	sb      sq.StatementBuilderType
}

func (s *Store) Reports() store.Reports             { return &reports{s} }
func (s *Store) Matches() store.Matches             { return &matches{s} }
func (s *Store) Notifications() store.Notifications { return &notifications{s} }
func (s *Store) Outbox() store.Outbox               { return &outbox{s} }

// DB exposes the underlying connection (migrations, health checks).
func (s *Store) DB() *sql.DB { return s.db }

// HealthPing implements health.Pinger.
func (s *Store) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// mapError converts driver errors to model errors. Context errors pass through wrapped.
func (s *Store) mapError(err error, entity, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, model.ErrNotFound)
	}
	if s.dialect.IsUniqueViolation(err) {
		return fmt.Errorf("%s %s: %w", entity, id, model.ErrConflict)
	}
	return fmt.Errorf("%s %s: %w", entity, id, err)
}

func now() time.Time { return time.Now().UTC() }

func nullString(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
