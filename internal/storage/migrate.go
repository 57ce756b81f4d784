package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// categoryVersion is the migration that introduces the category column.
const categoryVersion = 2

func RunMigrations(dbPath string) error {
	// Create a separate connection for migrations to avoid interfering with the main connection
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	legacy, err := hasLegacyCategoryColumn(migrateDB)
	if err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	// Files created before migrations existed may already carry the
	// category column; adding it again would fail.
	if _, _, err := m.Version(); errors.Is(err, migrate.ErrNilVersion) && legacy {
		slog.Info("Baselining legacy expenses table", "version", categoryVersion, "path", dbPath)
		if err := m.Force(categoryVersion); err != nil {
			return fmt.Errorf("baseline legacy schema: %w", err)
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// hasLegacyCategoryColumn reports whether an expenses table with a category
// column exists.
func hasLegacyCategoryColumn(db *sql.DB) (bool, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('expenses') WHERE name = 'category'`).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
