package gonumplot

import (
	"image/color"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"orbitviz/internal/diagnostics"
)

// Marker is a single-point scatter that moves in place.
type Marker struct {
	scatter *plotter.Scatter
}

// SetData moves the marker.
func (m *Marker) SetData(x, y float64) {
	m.scatter.XYs[0].X = x
	m.scatter.XYs[0].Y = y
}

// Position reports where the marker is drawn.
func (m *Marker) Position() (x, y float64) {
	return m.scatter.XYs[0].X, m.scatter.XYs[0].Y
}

// Figures routes live markers to the RV or sky figure by slot.
type Figures struct {
	RV  *RVFigure
	Sky *SkyFigure
}

var markerStyles = [...]struct {
	shape draw.GlyphDrawer
	color color.Color
}{
	diagnostics.SlotRV1: {draw.CrossGlyph{}, red},
	diagnostics.SlotRV2: {draw.CrossGlyph{}, blue},
	diagnostics.SlotSky: {draw.CircleGlyph{}, red},
}

// NewMarker adds a marker to the figure that owns slot. Positions reaching
// the factory are already known to be finite.
func (f Figures) NewMarker(slot diagnostics.MarkerSlot, x, y float64) diagnostics.Artist {
	style := markerStyles[slot]
	s := &plotter.Scatter{
		XYs: plotter.XYs{{X: x, Y: y}},
		GlyphStyle: draw.GlyphStyle{
			Shape:  style.shape,
			Color:  style.color,
			Radius: vg.Points(5),
		},
	}
	switch slot {
	case diagnostics.SlotSky:
		f.Sky.plot.Add(s)
	default:
		f.RV.plot.Add(s)
	}
	return &Marker{scatter: s}
}
