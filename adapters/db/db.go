// Package db stores fit runs in PostgreSQL or SQLite through sqlx.
package db

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"orbitviz/internal/errors"
	"orbitviz/internal/migration"
)

// DriverFor picks the sql driver for a database URL: postgres:// and
// postgresql:// go to lib/pq, anything else is handed to SQLite.
func DriverFor(url string) string {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return "postgres"
	}
	return "sqlite3"
}

// Open connects to url and creates the fit-run tables if needed.
func Open(ctx context.Context, url string) (*sqlx.DB, error) {
	driver := DriverFor(url)
	db, err := sqlx.ConnectContext(ctx, driver, url)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to "+driver, err)
	}
	if driver == "sqlite3" {
		// In-memory databases exist per connection.
		db.SetMaxOpenConns(1)
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies the fit-run schema; it is safe to run repeatedly.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	return migration.NewRunner().Run(ctx, db)
}
