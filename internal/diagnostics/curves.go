package diagnostics

import (
	"gonum.org/v1/gonum/floats"

	"orbitviz/domain/orbit"
	"orbitviz/internal/errors"
)

// PhaseDomain is a closed, evenly sampled phase interval.
type PhaseDomain struct {
	Lo, Hi  float64
	Samples int
}

// DefaultPhaseDomain spans [-0.15, 1.15] with 200 samples.
var DefaultPhaseDomain = PhaseDomain{Lo: -0.15, Hi: 1.15, Samples: 200}

// Phases returns the sample phases, both ends included.
func (d PhaseDomain) Phases() []float64 {
	return floats.Span(make([]float64, d.Samples), d.Lo, d.Hi)
}

func (d PhaseDomain) validate() error {
	if d.Samples < 2 {
		return errors.ConfigInvalidf("phase domain needs at least 2 samples, got %d", d.Samples)
	}
	if !isFinite(d.Lo) || !isFinite(d.Hi) || d.Hi <= d.Lo {
		return errors.ConfigInvalidf("phase domain [%v, %v] is empty", d.Lo, d.Hi)
	}
	return nil
}

// RVCurves holds the sampled model curve of each component.
type RVCurves struct {
	Primary   Curve `json:"primary"`
	Secondary Curve `json:"secondary"`
}

// SampleCurves evaluates both components of m over d. Non-finite model
// values stay in the output and are reported through each curve's Gaps.
func SampleCurves(m orbit.Model, d PhaseDomain) (RVCurves, error) {
	if err := d.validate(); err != nil {
		return RVCurves{}, err
	}
	phases := d.Phases()
	return RVCurves{
		Primary:   newCurve("primary", zipPoints(phases, m.Primary().RadialVelocities(phases))),
		Secondary: newCurve("secondary", zipPoints(phases, m.Secondary().RadialVelocities(phases))),
	}, nil
}

func zipPoints(xs, ys []float64) []Point {
	pts := make([]Point, len(xs))
	for i := range xs {
		pts[i] = Point{X: xs[i], Y: ys[i]}
	}
	return pts
}
