package testkit

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"orbitviz/domain/dataset"
	"orbitviz/domain/fit"
	"orbitviz/domain/orbit"
	"orbitviz/internal/errors"
)

// ObservationGeneratorConfig configures synthetic observations of a binary
type ObservationGeneratorConfig struct {
	RVCount     int     `json:"rv_count"`     // epochs per RV component
	ASCount     int     `json:"as_count"`     // astrometric epochs
	StartMJD    float64 `json:"start_mjd"`    // first epoch
	SpanDays    float64 `json:"span_days"`    // epochs are spread uniformly over this window
	RVError     float64 `json:"rv_error"`     // km/s, used as both noise and error bar
	ASMajor     float64 `json:"as_major"`     // mas, error ellipse semi-major axis
	ASMinor     float64 `json:"as_minor"`     // mas
	DrawCount   int     `json:"draw_count"`   // posterior draws in a synthetic chain
	ChainSpread float64 `json:"chain_spread"` // relative width of the synthetic posterior
	Seed        uint64  `json:"seed"`
}

// DefaultObservationConfig returns a modest, well-sampled data set
func DefaultObservationConfig() ObservationGeneratorConfig {
	return ObservationGeneratorConfig{
		RVCount:     25,
		ASCount:     12,
		StartMJD:    58000,
		SpanDays:    1200,
		RVError:     1.5,
		ASMajor:     0.4,
		ASMinor:     0.15,
		DrawCount:   2000,
		ChainSpread: 0.01,
		Seed:        42,
	}
}

// ObservationGenerator draws noisy observations from a known orbit
type ObservationGenerator struct {
	config ObservationGeneratorConfig
	rng    *rand.Rand
}

// NewObservationGenerator creates a generator; equal seeds give equal output
func NewObservationGenerator(config ObservationGeneratorConfig) *ObservationGenerator {
	return &ObservationGenerator{
		config: config,
		rng:    rand.New(rand.NewPCG(config.Seed, config.Seed^0x9e3779b97f4a7c15)),
	}
}

// Generate observes sys at random epochs. Phases are folded with the
// system's own period and T0.
func (g *ObservationGenerator) Generate(sys *orbit.BinarySystem) (*dataset.DataSet, error) {
	if g.config.RVCount < 0 || g.config.ASCount < 0 || !(g.config.SpanDays > 0) {
		return nil, errors.ConfigInvalidf("invalid generator config: %+v", g.config)
	}
	params := sys.Params()
	ds := dataset.New()

	if g.config.RVCount > 0 {
		noise := distuv.Normal{Mu: 0, Sigma: g.config.RVError, Src: g.rng}
		for _, comp := range []struct {
			kind  dataset.Kind
			model orbit.Component
		}{
			{dataset.KindRV1, sys.Primary()},
			{dataset.KindRV2, sys.Secondary()},
		} {
			rv := dataset.RVPayload{Component: comp.kind}
			for _, mjd := range g.epochs(g.config.RVCount) {
				phase := params.PhaseOf(mjd)
				rv.Phases = append(rv.Phases, phase)
				rv.RV = append(rv.RV, comp.model.RadialVelocity(phase)+noise.Rand())
				rv.Err = append(rv.Err, g.config.RVError)
			}
			ds.Put(rv)
		}
	}

	if g.config.ASCount > 0 {
		rel := sys.Relative()
		pa := distuv.Uniform{Min: 0, Max: 180, Src: g.rng}
		std := distuv.Normal{Mu: 0, Sigma: 1, Src: g.rng}
		var as dataset.ASPayload
		for _, mjd := range g.epochs(g.config.ASCount) {
			phase := params.PhaseOf(mjd)
			// Offsets are drawn along the ellipse axes, then rotated onto the sky.
			angle := pa.Rand()
			alongMajor := std.Rand() * g.config.ASMajor
			alongMinor := std.Rand() * g.config.ASMinor
			dEast, dNorth := rotateOffset(alongMajor, alongMinor, angle)

			as.Easts = append(as.Easts, rel.EastOfPhase(phase)+dEast)
			as.Norths = append(as.Norths, rel.NorthOfPhase(phase)+dNorth)
			as.Majors = append(as.Majors, g.config.ASMajor)
			as.Minors = append(as.Minors, g.config.ASMinor)
			as.PAs = append(as.PAs, angle)
		}
		ds.Put(as)
	}

	return ds, ds.Validate()
}

// GenerateChain fakes a posterior around params: every name in free is
// drawn from a normal of relative width ChainSpread, the rest are fixed.
func (g *ObservationGenerator) GenerateChain(params orbit.Params, free []string) (*fit.Result, error) {
	if g.config.DrawCount < 2 {
		return nil, errors.ConfigInvalidf("need at least 2 draws, got %d", g.config.DrawCount)
	}
	isFree := make(map[string]bool, len(free))
	for _, name := range free {
		if _, ok := params.Get(name); !ok {
			return nil, errors.ConfigInvalidf("unknown parameter %q", name)
		}
		isFree[name] = true
	}

	res := &fit.Result{
		Label:  "synthetic",
		Names:  orbit.Names(),
		Params: make(map[string]fit.Parameter, len(orbit.Names())),
	}
	var freeNames []string
	for _, name := range res.Names {
		v, _ := params.Get(name)
		res.Params[name] = fit.Parameter{Value: v, Vary: isFree[name]}
		if isFree[name] {
			freeNames = append(freeNames, name)
		}
	}
	if len(freeNames) == 0 {
		return res, nil
	}

	samples := mat.NewDense(g.config.DrawCount, len(freeNames), nil)
	for j, name := range freeNames {
		v := res.Params[name].Value
		width := g.config.ChainSpread * math.Abs(v)
		if width == 0 {
			width = g.config.ChainSpread
		}
		dist := distuv.Normal{Mu: v, Sigma: width, Src: g.rng}
		for i := 0; i < g.config.DrawCount; i++ {
			samples.Set(i, j, dist.Rand())
		}
	}
	res.Samples = samples
	return res, nil
}

func (g *ObservationGenerator) epochs(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = g.config.StartMJD + g.rng.Float64()*g.config.SpanDays
	}
	return out
}

// rotateOffset turns offsets along an ellipse's axes into east/north
// offsets; the major axis lies at position angle pa (degrees east of north).
func rotateOffset(major, minor, pa float64) (east, north float64) {
	s, c := math.Sincos(pa * math.Pi / 180)
	return major*s - minor*c, major*c + minor*s
}
