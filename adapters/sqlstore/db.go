// Package sqlstore keeps the training run registry in sqlite or postgres.
package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"fraudscore/internal"
	"fraudscore/internal/migration"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Open connects to the database and applies pending migrations
func Open(ctx context.Context, driver, url string, logger *internal.Logger) (*sqlx.DB, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sqlx.ConnectContext(ctx, driver, url)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// a single connection keeps in-memory databases shared across calls
		db.SetMaxOpenConns(1)
	}
	if err := migration.NewRunner(logger).Run(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
