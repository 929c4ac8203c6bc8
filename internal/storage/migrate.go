package storage

import (
	"errors"

	"github.com/readloom/readloom/internal/util"
	"github.com/readloom/readloom/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies any pending database migrations. A missing
// MIGRATIONS_PATH falls back to the local migrations directory.
func RunMigrations() {
	databaseURL := util.GetEnv("DATABASE_URL")
	sourceURL := util.GetEnvString("MIGRATIONS_PATH", "file://migrations")

	// The database container may still be starting; retry the initial open.
	m, err := util.Retry(5, func() (*migrate.Migrate, error) {
		return migrate.New(sourceURL, databaseURL)
	})
	if err != nil {
		logger.Fatal("Failed to open migrations", "err", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("No pending migrations")
			return
		}
		logger.Fatal("Failed to run migrations", "err", err)
	}

	logger.Info("Migrations applied")
}
