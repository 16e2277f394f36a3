package diagnostics

import (
	"math"

	"orbitviz/internal/errors"
)

// Config is the render configuration handed to every rendering boundary.
// It replaces process-wide plot state so several figures can coexist.
type Config struct {
	Samples        int     // points per sampled curve
	PhaseExtension float64 // fraction of a period shown beyond each edge of [0, 1)
	BoundsMargin   float64 // padding around astrometric data, in mas
	FontSize       float64 // points
	UseTeX         bool
	FigureWidth    float64 // inches
	FigureHeight   float64 // inches
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Samples:        200,
		PhaseExtension: 0.15,
		BoundsMargin:   2,
		FontSize:       16,
		FigureWidth:    10,
		FigureHeight:   5,
	}
}

// Validate rejects configurations no renderer can honor.
func (c Config) Validate() error {
	switch {
	case c.Samples < 2:
		return errors.ConfigInvalidf("samples must be at least 2, got %d", c.Samples)
	case !isFinite(c.PhaseExtension) || c.PhaseExtension < 0:
		return errors.ConfigInvalidf("phase extension must be a non-negative number, got %v", c.PhaseExtension)
	case !isFinite(c.BoundsMargin) || c.BoundsMargin < 0:
		return errors.ConfigInvalidf("bounds margin must be a non-negative number, got %v", c.BoundsMargin)
	case !(c.FontSize > 0):
		return errors.ConfigInvalidf("font size must be positive, got %v", c.FontSize)
	case !(c.FigureWidth > 0) || !(c.FigureHeight > 0):
		return errors.ConfigInvalidf("figure size must be positive, got %vx%v", c.FigureWidth, c.FigureHeight)
	}
	return nil
}

// PhaseDomain is the sampled phase window for RV curves.
func (c Config) PhaseDomain() PhaseDomain {
	return PhaseDomain{Lo: -c.PhaseExtension, Hi: 1 + c.PhaseExtension, Samples: c.Samples}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
