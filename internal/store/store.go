// Package store opens the desired-state store selected by configuration.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/helmsync/internal/apps"
	"github.com/imamik/helmsync/internal/config"
	"github.com/imamik/helmsync/internal/store/memory"
	"github.com/imamik/helmsync/internal/store/postgres"
	"github.com/imamik/helmsync/internal/store/sqlite"
	"github.com/imamik/helmsync/internal/util/retry"
)

// Store is an open desired-state store.
type Store struct {
	apps.Repository

	db *sql.DB
}

// Options controls how a store is opened.
type Options struct {
	// Migrate applies pending schema migrations after connecting.
	// SQLite databases are always migrated on open.
	Migrate bool

	// RetryDelay is the initial delay between connection attempts.
	RetryDelay time.Duration
}

// Open connects to the configured backend, waiting for it to become
// reachable for up to cfg.ConnectRetries retries.
func Open(ctx context.Context, cfg config.StoreConfig, opts Options) (*Store, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("store", cfg.Driver)

	switch cfg.Driver {
	case config.StoreMemory:
		log.Info("Using in-memory store, records are lost on exit")
		return &Store{Repository: memory.New()}, nil

	case config.StoreSQLite:
		db, err := sqlite.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		log.Info("Opened store", "dsn", cfg.DSN)
		return &Store{Repository: &sqlite.AppRepo{DB: db}, db: db}, nil

	case config.StorePostgres:
		delay := opts.RetryDelay
		if delay <= 0 {
			delay = time.Second
		}
		var db *sql.DB
		err := retry.Do(ctx, func(ctx context.Context) error {
			var err error
			db, err = postgres.Open(ctx, cfg.PostgresDSN())
			return err
		},
			retry.WithMaxRetries(cfg.ConnectRetries),
			retry.WithInitialDelay(delay),
			retry.WithOnRetry(func(attempt int, delay time.Duration, err error) {
				log.Info("Store not reachable, retrying", "attempt", attempt, "delay", delay, "error", err.Error())
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("connect to %s: %w", cfg.Redacted(), err)
		}
		if opts.Migrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
		}
		log.Info("Opened store", "dsn", cfg.Redacted())
		return &Store{Repository: &postgres.AppRepo{DB: db}, db: db}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Migrate applies pending schema migrations.
func (s *Store) Migrate(ctx context.Context, driver string) error {
	switch driver {
	case config.StorePostgres:
		return postgres.Migrate(ctx, s.db)
	case config.StoreSQLite:
		return sqlite.Migrate(ctx, s.db)
	default:
		return nil
	}
}

// Ping checks that the backing database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

// Close releases the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
