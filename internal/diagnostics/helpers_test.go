package diagnostics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"orbitviz/domain/orbit"
)

func testSystem(t *testing.T, e float64) *orbit.BinarySystem {
	t.Helper()
	sys, err := orbit.NewBinarySystem(orbit.Params{
		E: e, I: 55, Omega: 70, BigOmega: 120, T0: 58000,
		K1: 35, K2: 45, P: 300, Gamma1: 10, Gamma2: 10, D: 150,
	})
	require.NoError(t, err)
	return sys
}

// funcModel is a Model assembled from plain functions.
type funcModel struct {
	rv1, rv2    func(float64) float64
	east, north func(float64) float64
}

type funcComponent func(float64) float64

func (f funcComponent) RadialVelocity(ph float64) float64 { return f(ph) }

func (f funcComponent) RadialVelocities(phases []float64) []float64 {
	out := make([]float64, len(phases))
	for i, ph := range phases {
		out[i] = f(ph)
	}
	return out
}

type funcRelative struct{ east, north func(float64) float64 }

func (r funcRelative) EastOfEcc(x float64) float64    { return r.east(x) }
func (r funcRelative) NorthOfEcc(x float64) float64   { return r.north(x) }
func (r funcRelative) EastOfTrue(x float64) float64   { return r.east(x) }
func (r funcRelative) NorthOfTrue(x float64) float64  { return r.north(x) }
func (r funcRelative) EastOfPhase(x float64) float64  { return r.east(2 * math.Pi * x) }
func (r funcRelative) NorthOfPhase(x float64) float64 { return r.north(2 * math.Pi * x) }
func (r funcRelative) ArgumentOfPeriastron() float64  { return 0 }

func (m funcModel) Primary() orbit.Component      { return funcComponent(m.rv1) }
func (m funcModel) Secondary() orbit.Component    { return funcComponent(m.rv2) }
func (m funcModel) Relative() orbit.RelativeOrbit { return funcRelative{east: m.east, north: m.north} }
