package ports

import (
	"context"

	"orbitviz/domain/dataset"
)

// PhaseFunc folds an observation date (MJD) onto orbital phase.
type PhaseFunc func(mjd float64) float64

// ObservationReader loads observational data for overlay rendering.
// Unknown kinds in the source are skipped, never reported.
type ObservationReader interface {
	// ReadObservations reads the file at path; phaseOf converts dated
	// rows and may be nil when every row already carries a phase.
	ReadObservations(ctx context.Context, path string, phaseOf PhaseFunc) (*dataset.DataSet, error)
}
