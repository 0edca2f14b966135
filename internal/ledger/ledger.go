// Package ledger stores and reads the transactions predictions are computed from.
//
// Two stores are provided: PostgreSQL for deployments and SQLite for local use.
// Both keep one row per transaction and return rows ordered by timestamp ascending.
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ArionMiles/cloudexpense/pkg/api"
	"github.com/ArionMiles/cloudexpense/pkg/config"
)

// Store is a readable and writable transaction ledger.
type Store interface {
	api.Ledger
	api.LedgerWriter
	Ping(ctx context.Context) error
	Close() error
}

// Open connects to the store selected by cfg.LedgerDriver.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "ledger", "driver", cfg.LedgerDriver)

	switch cfg.LedgerDriver {
	case config.DriverPostgres:
		return NewPostgres(ctx, PostgresConfig{
			URL:      cfg.Postgres.URL,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
		}, logger)
	case config.DriverSQLite:
		return OpenSQLite(cfg.SQLite.Path, logger)
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", cfg.LedgerDriver)
	}
}
