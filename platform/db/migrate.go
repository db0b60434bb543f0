package db

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"staybook/platform/config"
	"staybook/platform/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// RunMigrations applies all pending embedded migrations.
func RunMigrations(_ context.Context, cfg config.MigrationConfig, log *logger.Logger) error {
	if !cfg.GetMigrationsEnabled() {
		log.Info("database migrations disabled")
		return nil
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err == nil {
		log.Info("database schema ready", "version", version, "dirty", dirty)
	}
	return nil
}
