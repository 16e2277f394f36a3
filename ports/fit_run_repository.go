package ports

import (
	"context"
	"time"

	"orbitviz/domain/core"
	"orbitviz/domain/fit"
)

// FitRunSummary is a listing row for a stored fit run.
type FitRunSummary struct {
	ID         core.RunID `db:"id"`
	Label      string     `db:"label"`
	CreatedAt  time.Time  `db:"created_at"`
	ParamCount int        `db:"param_count"`
	FreeCount  int        `db:"free_count"`
}

// FitRunRepository persists posterior sampling runs for later corner diagrams.
type FitRunRepository interface {
	// Save stores r and returns its run ID, assigning one when r.ID is empty
	Save(ctx context.Context, r *fit.Result) (core.RunID, error)

	// Get loads a run with its parameters and samples
	Get(ctx context.Context, id core.RunID) (*fit.Result, error)

	// List returns the most recent runs first
	List(ctx context.Context, limit int) ([]FitRunSummary, error)

	// Delete removes a run and everything stored with it
	Delete(ctx context.Context, id core.RunID) error
}
