package gonumplot

import (
	"io"

	"orbitviz/internal/diagnostics"
	"orbitviz/internal/errors"
	"orbitviz/ports"
)

// Renderer implements ports.FigureRenderer. Each call builds fresh figures,
// so concurrent renders share nothing.
type Renderer struct {
	cfg diagnostics.Config
}

var _ ports.FigureRenderer = Renderer{}

// NewRenderer creates a renderer for cfg.
func NewRenderer(cfg diagnostics.Config) Renderer {
	return Renderer{cfg: cfg}
}

// Build assembles both figures for scene and, when phase is set, places
// the live markers on them.
func (r Renderer) Build(scene *diagnostics.Scene, phase *float64) (Figures, error) {
	figs := Figures{RV: NewRVFigure(r.cfg), Sky: NewSkyFigure(r.cfg)}
	if err := figs.RV.AddCurves(scene.Curves); err != nil {
		return Figures{}, err
	}
	if err := figs.RV.AddData(scene.RV); err != nil {
		return Figures{}, err
	}
	if err := figs.Sky.AddOrbit(scene.Orbit); err != nil {
		return Figures{}, err
	}
	if scene.Sky != nil {
		if err := figs.Sky.AddAstrometry(*scene.Sky); err != nil {
			return Figures{}, err
		}
	}
	if phase != nil {
		if scene.Model == nil {
			return Figures{}, errors.InvalidInput("markers need a model")
		}
		if _, err := diagnostics.NewMarkerRegistry(figs).Update(scene.Model, *phase); err != nil {
			return Figures{}, err
		}
	}
	return figs, nil
}

// RenderFigure draws one figure of scene.
func (r Renderer) RenderFigure(w io.Writer, kind ports.FigureKind, format string, scene *diagnostics.Scene, phase *float64) error {
	figs, err := r.Build(scene, phase)
	if err != nil {
		return err
	}
	switch kind {
	case ports.FigureRV:
		return figs.RV.Encode(w, format)
	case ports.FigureSky:
		return figs.Sky.Encode(w, format)
	}
	return errors.InvalidInput("unknown figure " + string(kind))
}

// RenderCorner draws the corner diagram of req.
func (r Renderer) RenderCorner(w io.Writer, req diagnostics.CornerRequest) error {
	return RenderCorner(w, req, r.cfg)
}
