package diagnostics

import (
	"orbitviz/domain/dataset"
	"orbitviz/domain/orbit"
	"orbitviz/internal/errors"
)

// Scene is everything drawn for one parameter set and its observations.
type Scene struct {
	Model  orbit.Model     `json:"-"`
	Curves RVCurves        `json:"curves"`
	Orbit  OrbitProjection `json:"orbit"`
	RV     RVOverlay       `json:"rv"`
	Sky    *SkyOverlay     `json:"sky,omitempty"` // nil without astrometry
}

// BuildScene samples m and folds ds under cfg. A nil ds yields the model
// alone.
func BuildScene(m orbit.Model, ds *dataset.DataSet, cfg Config) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	curves, err := SampleCurves(m, cfg.PhaseDomain())
	if err != nil {
		return nil, errors.Wrap(err, "sampling RV curves")
	}
	proj, err := ProjectOrbit(m.Relative(), cfg.Samples)
	if err != nil {
		return nil, errors.Wrap(err, "projecting orbit")
	}
	rv, err := BuildRVOverlay(ds, cfg)
	if err != nil {
		return nil, err
	}
	scene := &Scene{Model: m, Curves: curves, Orbit: proj, RV: rv}

	sky, ok, err := BuildSkyOverlay(ds, cfg)
	if err != nil {
		return nil, err
	}
	if ok {
		scene.Sky = &sky
	}
	return scene, nil
}
