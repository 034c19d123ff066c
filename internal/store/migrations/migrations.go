// Package migrations embeds the schema for each supported SQL dialect and applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Up applies all pending migrations for dialect ("postgres" or "sqlite").
func Up(ctx context.Context, db *sql.DB, dialect string) error {
	var gd goose.Dialect
	switch dialect {
	case "postgres":
		gd = goose.DialectPostgres
	case "sqlite":
		gd = goose.DialectSQLite3
	default:
		return fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}
	sub, err := fs.Sub(files, dialect)
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(gd, db, sub)
	if err != nil {
		return fmt.Errorf("migrations: provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrations: up: %w", err)
	}
	for _, r := range results {
		log.Info().Str("dialect", dialect).Str("migration", r.Source.Path).Dur("took", r.Duration).Msg("applied migration")
	}
	return nil
}
