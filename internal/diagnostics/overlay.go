package diagnostics

import (
	"orbitviz/domain/dataset"
	"orbitviz/internal/errors"
)

// RVOverlay holds the folded RV data of every component present in a DataSet.
type RVOverlay struct {
	Series []FoldedRV `json:"series"`
}

// BuildRVOverlay folds each RV kind present in ds. Kinds that are absent
// contribute nothing.
func BuildRVOverlay(ds *dataset.DataSet, cfg Config) (RVOverlay, error) {
	var overlay RVOverlay
	for _, kind := range []dataset.Kind{dataset.KindRV1, dataset.KindRV2} {
		payload, ok := ds.RV(kind)
		if !ok {
			continue
		}
		folded, err := FoldPhases(payload, cfg.PhaseExtension)
		if err != nil {
			return RVOverlay{}, errors.Wrapf(err, "%s overlay", kind)
		}
		overlay.Series = append(overlay.Series, folded)
	}
	return overlay, nil
}

// BuildSkyOverlay renders the AS payload of ds. ok is false when ds has none.
func BuildSkyOverlay(ds *dataset.DataSet, cfg Config) (overlay SkyOverlay, ok bool, err error) {
	payload, ok := ds.Astrometry()
	if !ok {
		return SkyOverlay{}, false, nil
	}
	overlay, err = RenderUncertainty(payload, cfg.BoundsMargin)
	if err != nil {
		return SkyOverlay{}, true, errors.Wrap(err, "AS overlay")
	}
	return overlay, true, nil
}
