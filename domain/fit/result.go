// Package fit describes the outcome of a posterior sampling run.
package fit

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"orbitviz/domain/core"
	"orbitviz/internal/errors"
)

// Parameter is one fitted element and whether it was free to vary.
type Parameter struct {
	Value float64 `json:"value" db:"value"`
	Vary  bool    `json:"vary" db:"vary"`
}

// Result is a fit run: declared parameter order, parameter values and the
// flattened posterior chain (rows are draws, columns are free parameters).
type Result struct {
	ID        core.RunID
	Label     string
	CreatedAt time.Time
	Names     []string
	Params    map[string]Parameter
	Samples   *mat.Dense
}

// FreeNames returns the names of the free parameters in declaration order.
func (r *Result) FreeNames() []string {
	free := make([]string, 0, len(r.Names))
	for _, name := range r.Names {
		if r.Params[name].Vary {
			free = append(free, name)
		}
	}
	return free
}

// Validate checks that every declared name has a parameter entry.
func (r *Result) Validate() error {
	if len(r.Names) == 0 {
		return errors.ConfigInvalid("fit result declares no parameters")
	}
	seen := make(map[string]bool, len(r.Names))
	for _, name := range r.Names {
		if seen[name] {
			return errors.ConfigInvalidf("parameter %q declared twice", name)
		}
		seen[name] = true
		if _, ok := r.Params[name]; !ok {
			return errors.ConfigInvalidf("parameter %q declared without a value", name)
		}
	}
	return nil
}
