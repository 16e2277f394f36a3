package orbit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbitviz/internal/errors"
)

func sampleParams() Params {
	return Params{
		E: 0.3, I: 60, Omega: 120, BigOmega: 40, T0: 58000,
		K1: 30, K2: 40, P: 100, Gamma1: 5, Gamma2: 5, D: 100,
	}
}

func TestEccentricAnomalySolvesKepler(t *testing.T) {
	for _, e := range []float64{0, 0.1, 0.5, 0.9, 0.99} {
		for _, m := range []float64{0, 0.3, 1.5, math.Pi, 5} {
			ecc := EccentricAnomaly(m, e)
			assert.InDelta(t, m, ecc-e*math.Sin(ecc), 1e-10, "e=%v M=%v", e, m)
		}
	}
}

func TestTrueAnomalyCircular(t *testing.T) {
	for _, ecc := range []float64{0, 0.5, 2, -1} {
		assert.InDelta(t, ecc, TrueAnomaly(ecc, 0), 1e-12)
	}
}

func TestNewBinarySystemRejectsInvalid(t *testing.T) {
	bad := []func(*Params){
		func(p *Params) { p.E = 1 },
		func(p *Params) { p.E = -0.1 },
		func(p *Params) { p.P = 0 },
		func(p *Params) { p.D = -1 },
		func(p *Params) { p.K1, p.K2 = 0, 0 },
		func(p *Params) { p.I = 0 },
		func(p *Params) { p.I = math.NaN() },
		func(p *Params) { p.BigOmega = math.NaN() },
		func(p *Params) { p.Omega = math.Inf(1) },
		func(p *Params) { p.Gamma2 = math.NaN() },
		func(p *Params) { p.T0 = math.Inf(-1) },
	}
	for i, mutate := range bad {
		p := sampleParams()
		mutate(&p)
		_, err := NewBinarySystem(p)
		require.Error(t, err, "case %d", i)
		assert.True(t, errors.IsConfigurationError(err), "case %d", i)
	}
}

func TestRadialVelocityAmplitude(t *testing.T) {
	p := sampleParams()
	p.E = 0
	sys, err := NewBinarySystem(p)
	require.NoError(t, err)

	maxRV, minRV := math.Inf(-1), math.Inf(1)
	for i := 0; i < 1000; i++ {
		rv := sys.Primary().RadialVelocity(float64(i) / 1000)
		maxRV = math.Max(maxRV, rv)
		minRV = math.Min(minRV, rv)
	}
	assert.InDelta(t, p.Gamma1+p.K1, maxRV, 1e-3)
	assert.InDelta(t, p.Gamma1-p.K1, minRV, 1e-3)
}

func TestComponentsMoveInAntiphase(t *testing.T) {
	sys, err := NewBinarySystem(sampleParams())
	require.NoError(t, err)
	p := sys.Params()
	for _, ph := range []float64{0, 0.2, 0.7} {
		d1 := sys.Primary().RadialVelocity(ph) - p.Gamma1
		d2 := sys.Secondary().RadialVelocity(ph) - p.Gamma2
		assert.InDelta(t, -d1/p.K1, d2/p.K2, 1e-9)
	}
}

func TestVectorizedMatchesScalar(t *testing.T) {
	sys, err := NewBinarySystem(sampleParams())
	require.NoError(t, err)
	phases := []float64{-0.1, 0, 0.25, 0.5, 1.1}
	vec := sys.Secondary().RadialVelocities(phases)
	for i, ph := range phases {
		assert.Equal(t, sys.Secondary().RadialVelocity(ph), vec[i])
	}
}

func TestPhaseWraps(t *testing.T) {
	sys, err := NewBinarySystem(sampleParams())
	require.NoError(t, err)
	for _, ph := range []float64{0.1, 0.45, 0.9} {
		assert.InDelta(t, sys.Primary().RadialVelocity(ph), sys.Primary().RadialVelocity(ph+1), 1e-9)
		assert.InDelta(t, sys.Relative().EastOfPhase(ph), sys.Relative().EastOfPhase(ph-1), 1e-9)
	}
}

func TestRelativeOrbitAnomaliesAgree(t *testing.T) {
	sys, err := NewBinarySystem(sampleParams())
	require.NoError(t, err)
	rel := sys.Relative()
	for _, ecc := range []float64{0, 0.4, 2.1, 4} {
		nu := TrueAnomaly(ecc, 0.3)
		assert.InDelta(t, rel.EastOfEcc(ecc), rel.EastOfTrue(nu), 1e-9)
		assert.InDelta(t, rel.NorthOfEcc(ecc), rel.NorthOfTrue(nu), 1e-9)
	}
}

func TestPeriastronDistance(t *testing.T) {
	p := sampleParams()
	p.I = 90
	p.BigOmega = 0
	p.Omega = 270 // relative omega of 90 puts periastron on the north-south line
	sys, err := NewBinarySystem(p)
	require.NoError(t, err)

	east := sys.Relative().EastOfEcc(0)
	north := sys.Relative().NorthOfEcc(0)
	assert.InDelta(t, 0, north, 1e-9)
	assert.InDelta(t, 0, east, 1e-9)

	p.I = 60
	p.Omega = 180 // relative omega of 0
	sys, err = NewBinarySystem(p)
	require.NoError(t, err)
	sep := math.Hypot(sys.Relative().EastOfEcc(0), sys.Relative().NorthOfEcc(0))
	assert.InDelta(t, sys.SemiMajorAxis()*(1-p.E), sep, 1e-9)
}

func TestPhaseOf(t *testing.T) {
	p := sampleParams()
	assert.InDelta(t, 0.25, p.PhaseOf(p.T0+25), 1e-12)
	assert.InDelta(t, 0.75, p.PhaseOf(p.T0-25), 1e-12)
	assert.InDelta(t, 0, p.PhaseOf(p.T0+300), 1e-12)
}

func TestParamsGetSet(t *testing.T) {
	var p Params
	for i, name := range Names() {
		require.True(t, p.Set(name, float64(i+1)))
	}
	for i, name := range Names() {
		v, ok := p.Get(name)
		require.True(t, ok)
		assert.Equal(t, float64(i+1), v)
	}
	assert.False(t, p.Set("a", 1))
	_, ok := p.Get("a")
	assert.False(t, ok)
}
