package diagnostics

import (
	"orbitviz/domain/dataset"
	"orbitviz/internal/errors"
)

// FoldedRV is an RV series replicated across the extended phase window.
// Order carries no meaning; boundary points may appear twice.
type FoldedRV struct {
	Component dataset.Kind `json:"component"`
	Phases    []float64    `json:"phases"`
	RV        []float64    `json:"rv"`
	Err       []float64    `json:"err"`
}

func (f FoldedRV) Len() int { return len(f.Phases) }

// FoldPhases copies every observation to p-1, p and p+1 and keeps the
// copies that land in [-margin, 1+margin]. Errors pass through per copy.
func FoldPhases(p dataset.RVPayload, margin float64) (FoldedRV, error) {
	if err := p.Validate(); err != nil {
		return FoldedRV{}, errors.Wrap(err, "phase folding")
	}
	if !isFinite(margin) || margin < 0 {
		return FoldedRV{}, errors.ConfigInvalidf("phase margin must be a non-negative number, got %v", margin)
	}

	lo, hi := -margin, 1+margin
	out := FoldedRV{
		Component: p.Component,
		Phases:    make([]float64, 0, len(p.Phases)),
		RV:        make([]float64, 0, len(p.Phases)),
		Err:       make([]float64, 0, len(p.Phases)),
	}
	for i, ph := range p.Phases {
		for _, shift := range [...]float64{-1, 0, 1} {
			replica := ph + shift
			if replica < lo || replica > hi {
				continue
			}
			out.Phases = append(out.Phases, replica)
			out.RV = append(out.RV, p.RV[i])
			out.Err = append(out.Err, p.Err[i])
		}
	}
	return out, nil
}
