package diagnostics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"orbitviz/domain/orbit"
	"orbitviz/internal/errors"
)

// OrbitProjection is the relative orbit as drawn on the sky.
type OrbitProjection struct {
	Trace      Curve    `json:"trace"`
	Periastron Point    `json:"periastron"`
	Nodes      [2]Point `json:"nodes"` // line of nodes, through the primary
}

// ProjectOrbit samples the relative orbit at evenly spaced eccentric
// anomalies over [0, 2π], so the first and last points coincide.
func ProjectOrbit(rel orbit.RelativeOrbit, samples int) (OrbitProjection, error) {
	if samples < 2 {
		return OrbitProjection{}, errors.ConfigInvalidf("orbit trace needs at least 2 samples, got %d", samples)
	}
	anomalies := floats.Span(make([]float64, samples), 0, 2*math.Pi)
	trace := make([]Point, samples)
	for i, ecc := range anomalies {
		trace[i] = Point{X: rel.EastOfEcc(ecc), Y: rel.NorthOfEcc(ecc)}
	}

	omega := rel.ArgumentOfPeriastron()
	return OrbitProjection{
		Trace:      newCurve("relative orbit", trace),
		Periastron: Periastron(rel),
		Nodes: [2]Point{
			{X: rel.EastOfTrue(-omega), Y: rel.NorthOfTrue(-omega)},
			{X: rel.EastOfTrue(-omega + math.Pi), Y: rel.NorthOfTrue(-omega + math.Pi)},
		},
	}, nil
}

// Periastron is the projection at eccentric anomaly zero.
func Periastron(rel orbit.RelativeOrbit) Point {
	return Point{X: rel.EastOfEcc(0), Y: rel.NorthOfEcc(0)}
}
