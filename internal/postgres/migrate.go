package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrate applies all pending migrations from dir against dsn.
// The pgx driver registers under the pgx5 scheme, so the standard
// postgres:// DSN gets its scheme rewritten before handing it over.
func Migrate(dsn, dir string) error {
	migrateDSN := dsn
	if strings.HasPrefix(migrateDSN, "postgres://") {
		migrateDSN = "pgx5://" + strings.TrimPrefix(migrateDSN, "postgres://")
	}

	m, err := migrate.New("file://"+dir, migrateDSN)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
