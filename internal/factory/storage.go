package factory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/campuslostfound/lostfound/internal/config"
	"github.com/campuslostfound/lostfound/internal/store/postgres"
	"github.com/campuslostfound/lostfound/internal/store/sqlite"
	"github.com/campuslostfound/lostfound/internal/store/sqlstore"
)

// NewStore opens the configured database and applies pending migrations.
// Startup blocks on migration so the worker never leases against a missing schema.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*sqlstore.Store, error) {
	var (
		st  *sqlstore.Store
		err error
	)
	switch cfg.DBDriver {
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("LOSTFOUND_POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		st, err = postgres.Bootstrap(ctx, cfg.PostgresDSN)
	case "sqlite":
		st, err = sqlite.Bootstrap(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
	if err != nil {
		return nil, err
	}
	log.Debug().Str("driver", cfg.DBDriver).Msg("store bootstrap completed")
	return st, nil
}
