package diagnostics

import (
	"github.com/montanaflynn/stats"

	"orbitviz/domain/dataset"
	"orbitviz/internal/errors"
)

// Ellipse is one astrometric error ellipse in plot units. Width and Height
// are full axes; Angle is in degrees counter-clockwise from the horizontal axis.
type Ellipse struct {
	Center Point   `json:"center"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Angle  float64 `json:"angle"`
}

// Bounds are the square data-driven limits shared by the east and north axes.
type Bounds struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// EastAxis returns (left, right). East grows to the left on the sky.
func (b Bounds) EastAxis() (left, right float64) { return b.Hi, b.Lo }

// NorthAxis returns (bottom, top).
func (b Bounds) NorthAxis() (bottom, top float64) { return b.Lo, b.Hi }

// SkyOverlay is the astrometric data layer of the sky figure.
type SkyOverlay struct {
	Points   []Point   `json:"points"`
	Ellipses []Ellipse `json:"ellipses"`
	Bounds   Bounds    `json:"bounds"`
}

// PositionAngleToRotation converts a sky position angle (north through east)
// into a plot rotation measured from the horizontal axis.
func PositionAngleToRotation(pa float64) float64 {
	return pa - 90
}

// RenderUncertainty builds one ellipse per observation and the axis bounds
// padded by margin. Empty or ragged payloads are rejected before any output.
func RenderUncertainty(p dataset.ASPayload, margin float64) (SkyOverlay, error) {
	if err := p.Validate(); err != nil {
		return SkyOverlay{}, errors.Wrap(err, "uncertainty ellipses")
	}
	if p.Len() == 0 {
		return SkyOverlay{}, errors.ConfigInvalid("astrometric payload has no observations")
	}
	if !isFinite(margin) || margin < 0 {
		return SkyOverlay{}, errors.ConfigInvalidf("bounds margin must be a non-negative number, got %v", margin)
	}

	overlay := SkyOverlay{
		Points:   make([]Point, p.Len()),
		Ellipses: make([]Ellipse, p.Len()),
	}
	for i := range p.Easts {
		center := Point{X: p.Easts[i], Y: p.Norths[i]}
		if !center.finite() || !isFinite(p.PAs[i]) {
			return SkyOverlay{}, errors.ConfigInvalidf("astrometric observation %d is not finite", i)
		}
		if !(p.Majors[i] >= 0) || !(p.Minors[i] >= 0) {
			return SkyOverlay{}, errors.ConfigInvalidf("astrometric observation %d has negative or undefined axes", i)
		}
		overlay.Points[i] = center
		overlay.Ellipses[i] = Ellipse{
			Center: center,
			Width:  2 * p.Majors[i],
			Height: 2 * p.Minors[i],
			Angle:  PositionAngleToRotation(p.PAs[i]),
		}
	}

	bounds, err := dataBounds(p.Easts, p.Norths, margin)
	if err != nil {
		return SkyOverlay{}, err
	}
	overlay.Bounds = bounds
	return overlay, nil
}

func dataBounds(easts, norths []float64, margin float64) (Bounds, error) {
	all := make(stats.Float64Data, 0, len(easts)+len(norths))
	all = append(all, easts...)
	all = append(all, norths...)
	lo, err := stats.Min(all)
	if err != nil {
		return Bounds{}, errors.Wrap(errors.ConfigInvalid(err.Error()), "astrometric bounds")
	}
	hi, err := stats.Max(all)
	if err != nil {
		return Bounds{}, errors.Wrap(errors.ConfigInvalid(err.Error()), "astrometric bounds")
	}
	return Bounds{Lo: lo - margin, Hi: hi + margin}, nil
}
