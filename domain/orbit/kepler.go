package orbit

import (
	"math"
)

const (
	secondsPerDay = 86400.0
	kmPerAU       = 1.495978707e8
	keplerTol     = 1e-12
	keplerMaxIter = 100
)

// BinarySystem is the Keplerian Model built from a set of Params.
type BinarySystem struct {
	params    Params
	primary   component
	secondary component
	relative  relativeOrbit
}

var _ Model = (*BinarySystem)(nil)

// NewBinarySystem validates p and derives both components and the relative orbit.
func NewBinarySystem(p Params) (*BinarySystem, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	omega := deg2rad(p.Omega)
	incl := deg2rad(p.I)

	// Total semimajor axis in km from the summed semi-amplitudes, then in mas at distance D.
	aKm := (p.K1 + p.K2) * p.P * secondsPerDay * math.Sqrt(1-p.E*p.E) / (2 * math.Pi * math.Sin(incl))
	aMas := aKm / kmPerAU / p.D * 1000

	return &BinarySystem{
		params:    p,
		primary:   component{e: p.E, omega: omega, k: p.K1, gamma: p.Gamma1},
		secondary: component{e: p.E, omega: omega + math.Pi, k: p.K2, gamma: p.Gamma2},
		relative: relativeOrbit{
			e:        p.E,
			a:        aMas,
			omega:    omega + math.Pi,
			bigOmega: deg2rad(p.BigOmega),
			cosI:     math.Cos(incl),
		},
	}, nil
}

func (s *BinarySystem) Primary() Component      { return s.primary }
func (s *BinarySystem) Secondary() Component    { return s.secondary }
func (s *BinarySystem) Relative() RelativeOrbit { return s.relative }

// Params returns the elements the system was built from.
func (s *BinarySystem) Params() Params { return s.params }

// SemiMajorAxis is the angular semimajor axis of the relative orbit in mas.
func (s *BinarySystem) SemiMajorAxis() float64 { return s.relative.a }

type component struct {
	e, omega, k, gamma float64
}

func (c component) RadialVelocity(phase float64) float64 {
	nu := TrueAnomaly(EccentricAnomaly(MeanAnomaly(phase), c.e), c.e)
	return c.gamma + c.k*(math.Cos(nu+c.omega)+c.e*math.Cos(c.omega))
}

func (c component) RadialVelocities(phases []float64) []float64 {
	out := make([]float64, len(phases))
	for i, ph := range phases {
		out[i] = c.RadialVelocity(ph)
	}
	return out
}

type relativeOrbit struct {
	e, a, omega, bigOmega, cosI float64
}

func (r relativeOrbit) ArgumentOfPeriastron() float64 { return r.omega }

func (r relativeOrbit) EastOfEcc(ecc float64) float64 {
	return r.east(r.radiusOfEcc(ecc), TrueAnomaly(ecc, r.e))
}

func (r relativeOrbit) NorthOfEcc(ecc float64) float64 {
	return r.north(r.radiusOfEcc(ecc), TrueAnomaly(ecc, r.e))
}

func (r relativeOrbit) EastOfTrue(nu float64) float64 {
	return r.east(r.radiusOfTrue(nu), nu)
}

func (r relativeOrbit) NorthOfTrue(nu float64) float64 {
	return r.north(r.radiusOfTrue(nu), nu)
}

func (r relativeOrbit) EastOfPhase(phase float64) float64 {
	return r.EastOfEcc(EccentricAnomaly(MeanAnomaly(phase), r.e))
}

func (r relativeOrbit) NorthOfPhase(phase float64) float64 {
	return r.NorthOfEcc(EccentricAnomaly(MeanAnomaly(phase), r.e))
}

func (r relativeOrbit) radiusOfEcc(ecc float64) float64 {
	return r.a * (1 - r.e*math.Cos(ecc))
}

func (r relativeOrbit) radiusOfTrue(nu float64) float64 {
	return r.a * (1 - r.e*r.e) / (1 + r.e*math.Cos(nu))
}

func (r relativeOrbit) north(radius, nu float64) float64 {
	u := r.omega + nu
	return radius * (math.Cos(u)*math.Cos(r.bigOmega) - math.Sin(u)*math.Sin(r.bigOmega)*r.cosI)
}

func (r relativeOrbit) east(radius, nu float64) float64 {
	u := r.omega + nu
	return radius * (math.Cos(u)*math.Sin(r.bigOmega) + math.Sin(u)*math.Cos(r.bigOmega)*r.cosI)
}

// MeanAnomaly maps a phase onto [0, 2π); phases outside [0, 1) wrap.
func MeanAnomaly(phase float64) float64 {
	return 2 * math.Pi * wrapPhase(phase)
}

// EccentricAnomaly solves Kepler's equation E - e sin E = M by Newton iteration.
func EccentricAnomaly(mean, e float64) float64 {
	ecc := mean
	if e > 0.8 {
		ecc = math.Pi
	}
	for i := 0; i < keplerMaxIter; i++ {
		step := (ecc - e*math.Sin(ecc) - mean) / (1 - e*math.Cos(ecc))
		ecc -= step
		if math.Abs(step) < keplerTol {
			break
		}
	}
	return ecc
}

// TrueAnomaly converts an eccentric anomaly into the true anomaly.
func TrueAnomaly(ecc, e float64) float64 {
	return 2 * math.Atan2(math.Sqrt(1+e)*math.Sin(ecc/2), math.Sqrt(1-e)*math.Cos(ecc/2))
}
