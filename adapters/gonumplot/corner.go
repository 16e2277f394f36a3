package gonumplot

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"orbitviz/internal/diagnostics"
	"orbitviz/internal/errors"
)

const (
	cornerBins      = 20
	cornerPanelSize = 2 * vg.Inch
)

var truthColor = color.RGBA{R: 0x44, G: 0x88, B: 0xdd, A: 0xff}

// cornerAxes pairs each sample column with its label and truth value.
type cornerAxes struct {
	labels []string
	truths []float64 // nil when truths do not line up with the columns
}

// resolveCornerAxes matches labels to sample columns. Samples hold only free
// parameters, so when the label list covers every parameter the free ones
// are picked out through FreeIndices.
func resolveCornerAxes(req diagnostics.CornerRequest, cols int) (cornerAxes, error) {
	var axes cornerAxes
	switch {
	case len(req.Labels) == cols:
		axes.labels = req.Labels
	case len(req.FreeIndices) == cols:
		axes.labels = make([]string, cols)
		for k, idx := range req.FreeIndices {
			if idx < 0 || idx >= len(req.Labels) {
				return cornerAxes{}, errors.ConfigInvalidf("free index %d outside %d labels", idx, len(req.Labels))
			}
			axes.labels[k] = req.Labels[idx]
		}
	default:
		return cornerAxes{}, errors.ConfigInvalidf("%d sample columns match neither %d labels nor %d free parameters",
			cols, len(req.Labels), len(req.FreeIndices))
	}
	if len(req.Truths) == cols {
		axes.truths = req.Truths
	}
	return axes, nil
}

// RenderCorner draws the lower triangle of pairwise sample scatters with
// marginal histograms on the diagonal, and writes it to w as PNG.
func RenderCorner(w io.Writer, req diagnostics.CornerRequest, cfg diagnostics.Config) error {
	if req.Samples == nil {
		return errors.ConfigInvalid("corner plot needs samples")
	}
	rows, cols := req.Samples.Dims()
	if rows < 2 || cols == 0 {
		return errors.ConfigInvalidf("corner plot needs at least 2 draws, got %dx%d", rows, cols)
	}
	axes, err := resolveCornerAxes(req, cols)
	if err != nil {
		return err
	}

	columns := make([]plotter.Values, cols)
	for j := range columns {
		columns[j] = mat.Col(nil, j, req.Samples)
	}

	size := cornerPanelSize * vg.Length(cols)
	img := vgimg.New(size, size)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: cols, Cols: cols,
		PadX: vg.Millimeter, PadY: vg.Millimeter,
		PadTop: vg.Points(4), PadBottom: vg.Points(4),
		PadLeft: vg.Points(4), PadRight: vg.Points(4),
	}

	for i := 0; i < cols; i++ {
		for j := 0; j <= i; j++ {
			var p *plot.Plot
			ty, hasY := axes.truth(i)
			if i == j {
				p, err = marginalPanel(columns[i], ty, hasY)
			} else {
				tx, hasX := axes.truth(j)
				p, err = pairPanel(columns[j], columns[i], tx, hasX, ty, hasY)
			}
			if err != nil {
				return errors.Wrapf(err, "corner panel (%d,%d)", i, j)
			}
			styleCornerPanel(p, cfg)
			if i == cols-1 {
				p.X.Label.Text = axes.labels[j]
			}
			if j == 0 && i > 0 {
				p.Y.Label.Text = axes.labels[i]
			}
			p.Draw(tiles.At(dc, j, i))
		}
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return errors.Wrap(err, "encoding corner plot")
	}
	return nil
}

func (a cornerAxes) truth(i int) (float64, bool) {
	if a.truths == nil {
		return 0, false
	}
	return a.truths[i], true
}

func marginalPanel(vs plotter.Values, truth float64, hasTruth bool) (*plot.Plot, error) {
	p := plot.New()
	h, err := plotter.NewHist(vs, cornerBins)
	if err != nil {
		return nil, err
	}
	h.FillColor = nil
	h.LineStyle.Color = black
	p.Add(h)
	p.Y.Tick.Marker = plot.ConstantTicks(nil)

	if hasTruth {
		top := 0.0
		for _, b := range h.Bins {
			if b.Weight > top {
				top = b.Weight
			}
		}
		line, err := plotter.NewLine(plotter.XYs{{X: truth, Y: 0}, {X: truth, Y: top}})
		if err != nil {
			return nil, err
		}
		line.LineStyle.Color = truthColor
		p.Add(line)
	}
	return p, nil
}

func pairPanel(xs, ys plotter.Values, tx float64, hasX bool, ty float64, hasY bool) (*plot.Plot, error) {
	p := plot.New()
	xys := make(plotter.XYs, len(xs))
	for k := range xys {
		xys[k].X, xys[k].Y = xs[k], ys[k]
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(0.5)
	s.GlyphStyle.Color = color.Gray{Y: 64}
	p.Add(s)

	if hasX && hasY {
		truth, err := plotter.NewScatter(plotter.XYs{{X: tx, Y: ty}})
		if err != nil {
			return nil, err
		}
		truth.GlyphStyle.Shape = draw.SquareGlyph{}
		truth.GlyphStyle.Color = truthColor
		truth.GlyphStyle.Radius = vg.Points(3)
		p.Add(truth)
	}
	return p, nil
}

func styleCornerPanel(p *plot.Plot, cfg diagnostics.Config) {
	size := vg.Points(cfg.FontSize) * 0.6
	for _, style := range []*text.Style{&p.X.Label.TextStyle, &p.Y.Label.TextStyle} {
		style.Font.Size = size
		if cfg.UseTeX {
			style.Handler = text.Latex{Fonts: font.DefaultCache}
		}
	}
	p.X.Tick.Label.Font.Size = size * 0.8
	p.Y.Tick.Label.Font.Size = size * 0.8
}

// CornerLabels lists the label drawn for each sample column.
func CornerLabels(req diagnostics.CornerRequest) ([]string, error) {
	if req.Samples == nil {
		return nil, errors.ConfigInvalid("corner plot needs samples")
	}
	_, cols := req.Samples.Dims()
	axes, err := resolveCornerAxes(req, cols)
	if err != nil {
		return nil, err
	}
	out := make([]string, cols)
	for j, l := range axes.labels {
		out[j] = fmt.Sprintf("%d: %s", j, l)
	}
	return out, nil
}
