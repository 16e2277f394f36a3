package orbit

import (
	"math"

	"github.com/agnivade/levenshtein"

	"orbitviz/internal/errors"
)

// Params are the orbital elements of a spectroscopic/astrometric binary.
// Angles are in degrees, T0 in MJD, velocities in km/s, P in days, D in pc.
type Params struct {
	E        float64 `json:"e" db:"e"`
	I        float64 `json:"i" db:"i"`
	Omega    float64 `json:"omega" db:"omega"`
	BigOmega float64 `json:"Omega" db:"big_omega"`
	T0       float64 `json:"t0" db:"t0"`
	K1       float64 `json:"k1" db:"k1"`
	K2       float64 `json:"k2" db:"k2"`
	P        float64 `json:"p" db:"p"`
	Gamma1   float64 `json:"gamma1" db:"gamma1"`
	Gamma2   float64 `json:"gamma2" db:"gamma2"`
	D        float64 `json:"d" db:"d"`
}

// Validate rejects elements outside the bound-orbit domain.
func (p Params) Validate() error {
	for _, name := range Names() {
		if v, _ := p.Get(name); math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.ConfigInvalidf("orbital element %q is not finite: %v", name, v)
		}
	}
	switch {
	case math.IsNaN(p.E) || p.E < 0 || p.E >= 1:
		return errors.ConfigInvalidf("eccentricity %v outside [0, 1)", p.E)
	case !(p.P > 0):
		return errors.ConfigInvalidf("period %v must be positive", p.P)
	case !(p.D > 0):
		return errors.ConfigInvalidf("distance %v must be positive", p.D)
	case !(p.K1+p.K2 > 0):
		return errors.ConfigInvalidf("semi-amplitudes k1=%v k2=%v must sum to a positive value", p.K1, p.K2)
	case math.Abs(math.Sin(deg2rad(p.I))) < 1e-12:
		return errors.ConfigInvalidf("inclination %v leaves the orbit face-on", p.I)
	}
	return nil
}

// PhaseOf converts a date (MJD) into an orbital phase in [0, 1).
func (p Params) PhaseOf(mjd float64) float64 {
	return wrapPhase((mjd - p.T0) / p.P)
}

// Names lists the element identifiers in their conventional order.
func Names() []string {
	return []string{"e", "i", "omega", "Omega", "t0", "k1", "k2", "p", "gamma1", "gamma2", "d"}
}

// Get returns the element with the given identifier.
func (p Params) Get(name string) (float64, bool) {
	switch name {
	case "e":
		return p.E, true
	case "i":
		return p.I, true
	case "omega":
		return p.Omega, true
	case "Omega":
		return p.BigOmega, true
	case "t0":
		return p.T0, true
	case "k1":
		return p.K1, true
	case "k2":
		return p.K2, true
	case "p":
		return p.P, true
	case "gamma1":
		return p.Gamma1, true
	case "gamma2":
		return p.Gamma2, true
	case "d":
		return p.D, true
	}
	return 0, false
}

// Set assigns the element with the given identifier. Unknown names are reported.
func (p *Params) Set(name string, v float64) bool {
	switch name {
	case "e":
		p.E = v
	case "i":
		p.I = v
	case "omega":
		p.Omega = v
	case "Omega":
		p.BigOmega = v
	case "t0":
		p.T0 = v
	case "k1":
		p.K1 = v
	case "k2":
		p.K2 = v
	case "p":
		p.P = v
	case "gamma1":
		p.Gamma1 = v
	case "gamma2":
		p.Gamma2 = v
	case "d":
		p.D = v
	default:
		return false
	}
	return true
}

// ParamsFromMap builds Params from named values. t0 defaults to 0 and
// gamma2 to gamma1; every other element is required. A missing element
// whose name is a near miss of an unrecognised key is reported with it.
func ParamsFromMap(values map[string]float64) (Params, error) {
	var p Params
	for _, name := range Names() {
		v, ok := values[name]
		if !ok {
			switch name {
			case "t0":
				continue
			case "gamma2":
				p.Gamma2 = p.Gamma1
				continue
			}
			if near, found := nearestUnknown(name, values); found {
				return p, errors.ConfigInvalidf("missing orbital element %q (found %q)", name, near)
			}
			return p, errors.ConfigInvalidf("missing orbital element %q", name)
		}
		p.Set(name, v)
	}
	return p, nil
}

// nearestUnknown finds the unrecognised key closest to name, within an
// edit distance of two.
func nearestUnknown(name string, values map[string]float64) (string, bool) {
	var probe Params
	best, bestDist := "", 3
	for key := range values {
		if _, known := probe.Get(key); known {
			continue
		}
		d := levenshtein.ComputeDistance(key, name)
		if d < bestDist || (d == bestDist && key < best) {
			best, bestDist = key, d
		}
	}
	return best, best != ""
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }

func wrapPhase(ph float64) float64 {
	ph -= math.Floor(ph)
	if ph >= 1 {
		ph = 0
	}
	return ph
}
