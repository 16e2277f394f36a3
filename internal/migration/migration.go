package migration

import (
	"context"

	"github.com/jmoiron/sqlx"

	"orbitviz/internal/errors"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

var _ Migrator = (*MigrationRunner)(nil)

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order. Every statement is
// idempotent and valid for both PostgreSQL and SQLite.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createFitRunsTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create fit_runs table", err)
	}

	if err := r.createFitParamsTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create fit_params table", err)
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.DatabaseError("failed to create indexes", err)
	}

	return nil
}

func (r *MigrationRunner) createFitRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS fit_runs (
			id         TEXT PRIMARY KEY,
			label      TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			samples    TEXT
		)
	`)
	return err
}

func (r *MigrationRunner) createFitParamsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS fit_params (
			run_id   TEXT NOT NULL REFERENCES fit_runs(id),
			position INTEGER NOT NULL,
			name     TEXT NOT NULL,
			value    DOUBLE PRECISION NOT NULL,
			vary     BOOLEAN NOT NULL,
			PRIMARY KEY (run_id, name)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_fit_runs_created_at ON fit_runs (created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_fit_params_run_id ON fit_params (run_id)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
