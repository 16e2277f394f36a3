package diagnostics

import (
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"orbitviz/domain/fit"
	"orbitviz/internal/errors"
)

type paramLabel struct {
	tex, plain string
}

var paramLabels = map[string]paramLabel{
	"e":      {`$e$`, "e"},
	"i":      {`$i$ (deg)`, "i (deg)"},
	"omega":  {`$\omega$ (deg)`, "ω (deg)"},
	"Omega":  {`$\Omega$ (deg)`, "Ω (deg)"},
	"t0":     {`$T_0$ (MJD)`, "T0 (MJD)"},
	"k1":     {`$K_1$ (km/s)`, "K1 (km/s)"},
	"k2":     {`$K_2$ (km/s)`, "K2 (km/s)"},
	"p":      {`$P$ (d)`, "P (d)"},
	"gamma1": {`$\gamma_1$ (km/s)`, "γ1 (km/s)"},
	"gamma2": {`$\gamma_2$ (km/s)`, "γ2 (km/s)"},
	"d":      {`$d$ (pc)`, "d (pc)"},
}

// ParamLabel returns the display label of a fit parameter. Unknown names
// are returned as they are.
func ParamLabel(name string, useTeX bool) string {
	l, ok := paramLabels[name]
	if !ok {
		return name
	}
	if useTeX {
		return l.tex
	}
	return l.plain
}

// CornerRequest is what the correlation-plot generator consumes. Labels
// cover every declared parameter; Truths cover only the free ones, so the
// two lengths differ whenever a parameter was held fixed.
type CornerRequest struct {
	Names       []string   `json:"names"`
	Labels      []string   `json:"labels"`
	Truths      []float64  `json:"truths"`
	FreeIndices []int      `json:"free_indices"` // positions in Names of the free parameters
	Samples     *mat.Dense `json:"-"`
}

// MapCornerLabels labels every parameter of r in declaration order and
// collects the current values of the free ones.
func MapCornerLabels(r *fit.Result, cfg Config) (CornerRequest, error) {
	if err := r.Validate(); err != nil {
		return CornerRequest{}, errors.Wrap(err, "corner labels")
	}
	req := CornerRequest{
		Names:   append([]string(nil), r.Names...),
		Labels:  make([]string, 0, len(r.Names)),
		Truths:  make([]float64, 0, len(r.Names)),
		Samples: r.Samples,
	}
	for i, name := range r.Names {
		req.Labels = append(req.Labels, ParamLabel(name, cfg.UseTeX))
		if p := r.Params[name]; p.Vary {
			req.Truths = append(req.Truths, p.Value)
			req.FreeIndices = append(req.FreeIndices, i)
		}
	}
	return req, nil
}

// PosteriorSummary condenses the sample matrix column by column.
type PosteriorSummary struct {
	Median      []float64     `json:"median"`
	Lower       []float64     `json:"lower"` // 16th percentile
	Upper       []float64     `json:"upper"` // 84th percentile
	Correlation *mat.SymDense `json:"-"`
}

// Summarize computes per-column credible intervals and the Pearson
// correlation matrix of the posterior draws.
func Summarize(samples *mat.Dense) (PosteriorSummary, error) {
	if samples == nil {
		return PosteriorSummary{}, errors.ConfigInvalid("fit result carries no samples")
	}
	rows, cols := samples.Dims()
	if rows < 2 || cols == 0 {
		return PosteriorSummary{}, errors.ConfigInvalidf("need at least 2 draws of 1 parameter, got %dx%d", rows, cols)
	}

	sum := PosteriorSummary{
		Median: make([]float64, cols),
		Lower:  make([]float64, cols),
		Upper:  make([]float64, cols),
	}
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, samples)
		var err error
		if sum.Median[j], err = stats.Median(col); err != nil {
			return PosteriorSummary{}, errors.Wrapf(err, "median of column %d", j)
		}
		if sum.Lower[j], err = stats.PercentileNearestRank(col, 16); err != nil {
			return PosteriorSummary{}, errors.Wrapf(err, "16th percentile of column %d", j)
		}
		if sum.Upper[j], err = stats.PercentileNearestRank(col, 84); err != nil {
			return PosteriorSummary{}, errors.Wrapf(err, "84th percentile of column %d", j)
		}
	}

	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, samples, nil)
	sum.Correlation = &corr
	return sum, nil
}
