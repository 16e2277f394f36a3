package ports

import (
	"io"

	"orbitviz/internal/diagnostics"
)

// FigureKind names one of the two diagnostic figures.
type FigureKind string

const (
	FigureRV  FigureKind = "rv"
	FigureSky FigureKind = "sky"
)

// FigureRenderer draws diagnostics primitives into an image encoding.
type FigureRenderer interface {
	// RenderFigure draws kind from scene; a non-nil phase adds the live markers
	RenderFigure(w io.Writer, kind FigureKind, format string, scene *diagnostics.Scene, phase *float64) error

	// RenderCorner draws the posterior correlation diagram as PNG
	RenderCorner(w io.Writer, req diagnostics.CornerRequest) error
}
