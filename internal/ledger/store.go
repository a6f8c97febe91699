package ledger

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/negneg-eq-submitter/internal/domain"
)

// NewStore opens the ledger selected by config. Postgres stores are
// migrated first when run_migrations is set.
func NewStore(ctx context.Context, config domain.LedgerConfig, logger *logrus.Logger) (Store, error) {
	switch config.Driver {
	case "", "none":
		return NopStore{}, nil
	case "sqlite":
		store, err := NewSQLiteStore(config.Path)
		if err != nil {
			return nil, err
		}
		logger.WithField("path", config.Path).Debug("Opened SQLite ledger")
		return store, nil
	case "postgres", "pgx":
		store, err := OpenPostgresStore(ctx, config.Driver, config.DSN)
		if err != nil {
			return nil, err
		}
		if config.RunMigrations {
			if err := migrateUp(ctx, store, logger); err != nil {
				store.Close()
				return nil, err
			}
		}
		logger.WithField("driver", config.Driver).Debug("Opened Postgres ledger")
		return store, nil
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", config.Driver)
	}
}

func migrateUp(ctx context.Context, store *PostgresStore, logger *logrus.Logger) error {
	runner, err := NewMigrationRunner(ctx, store.db, logger)
	if err != nil {
		return err
	}
	defer runner.Close()

	return runner.Up(ctx)
}
