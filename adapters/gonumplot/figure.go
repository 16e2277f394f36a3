// Package gonumplot draws diagnostics primitives with gonum/plot.
package gonumplot

import (
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"orbitviz/domain/dataset"
	"orbitviz/internal/diagnostics"
	"orbitviz/internal/errors"
)

var (
	blue  = color.RGBA{B: 255, A: 255}
	red   = color.RGBA{R: 255, A: 255}
	black = color.RGBA{A: 255}
	grey  = color.Gray{Y: 128}
)

var (
	dashed = []vg.Length{vg.Points(6), vg.Points(4)}
	dotted = []vg.Length{vg.Points(1), vg.Points(3)}
)

const ellipseVertices = 64

// RV phase axis limits, slightly wider than the sampled curves.
const (
	rvPhaseMin = -0.18
	rvPhaseMax = 1.18
)

// Default sky limits before any astrometry is shown, in mas.
const skyDefaultLimit = 10

// figure is the shared part of the RV and sky figures.
type figure struct {
	plot   *plot.Plot
	cfg    diagnostics.Config
	width  vg.Length
	height vg.Length
}

func newFigure(cfg diagnostics.Config, title, xLabel, yLabel string, width, height float64) figure {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	size := vg.Points(cfg.FontSize)
	for _, style := range []*text.Style{&p.Title.TextStyle, &p.X.Label.TextStyle, &p.Y.Label.TextStyle} {
		style.Font.Size = size
		if cfg.UseTeX {
			style.Handler = text.Latex{Fonts: font.DefaultCache}
		}
	}
	p.X.Tick.Label.Font.Size = size * 0.75
	p.Y.Tick.Label.Font.Size = size * 0.75
	p.Legend.TextStyle.Font.Size = size * 0.75
	p.Add(plotter.NewGrid())

	return figure{
		plot:   p,
		cfg:    cfg,
		width:  vg.Length(width) * vg.Inch,
		height: vg.Length(height) * vg.Inch,
	}
}

func (f figure) label(tex, plain string) string {
	if f.cfg.UseTeX {
		return tex
	}
	return plain
}

// addCurve draws c as one line per finite segment; only the first enters the legend.
func (f figure) addCurve(c diagnostics.Curve, clr color.Color, dashes []vg.Length) error {
	for i, seg := range c.Segments() {
		line, err := plotter.NewLine(toXYs(seg))
		if err != nil {
			return errors.Wrapf(err, "drawing %s", c.Label)
		}
		line.LineStyle.Color = clr
		line.LineStyle.Dashes = dashes
		f.plot.Add(line)
		if i == 0 {
			f.plot.Legend.Add(c.Label, line)
		}
	}
	return nil
}

func (f figure) addMarker(at diagnostics.Point, shape draw.GlyphDrawer, clr color.Color) (*plotter.Scatter, error) {
	s, err := plotter.NewScatter(plotter.XYs{{X: at.X, Y: at.Y}})
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Shape = shape
	s.GlyphStyle.Color = clr
	s.GlyphStyle.Radius = vg.Points(4)
	f.plot.Add(s)
	return s, nil
}

// encode writes the figure in format: png, svg, pdf or eps.
func (f figure) encode(w io.Writer, format string) error {
	wt, err := f.plot.WriterTo(f.width, f.height, format)
	if err != nil {
		return errors.Wrapf(err, "encoding %s figure", format)
	}
	_, err = wt.WriteTo(w)
	return err
}

func (f figure) save(path string) error {
	return f.plot.Save(f.width, f.height, path)
}

// RVFigure shows RV curves against orbital phase.
type RVFigure struct {
	figure
}

// NewRVFigure sets up the phase/velocity axes.
func NewRVFigure(cfg diagnostics.Config) *RVFigure {
	f := newFigure(cfg, "", "", "", cfg.FigureWidth, cfg.FigureHeight)
	f.plot.X.Label.Text = f.label(`$orbital$ $phase$`, "orbital phase")
	f.plot.Y.Label.Text = f.label(`$RV (km s^{-1})$`, "RV (km/s)")
	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	zero.LineStyle.Color = black
	zero.LineStyle.Dashes = dotted
	f.plot.Add(zero)
	return &RVFigure{figure: f}
}

// AddCurves draws both model curves, primary blue and secondary red.
func (f *RVFigure) AddCurves(curves diagnostics.RVCurves) error {
	if err := f.addCurve(curves.Primary, blue, dashed); err != nil {
		return err
	}
	return f.addCurve(curves.Secondary, red, dashed)
}

// AddData draws folded observations with their error bars.
func (f *RVFigure) AddData(overlay diagnostics.RVOverlay) error {
	for _, series := range overlay.Series {
		if series.Len() == 0 {
			continue
		}
		clr := blue
		if series.Component == dataset.KindRV2 {
			clr = red
		}
		pts := foldedPoints{series}
		bars, err := plotter.NewYErrorBars(pts)
		if err != nil {
			return errors.Wrapf(err, "%s error bars", series.Component)
		}
		bars.LineStyle.Color = clr
		dots, err := plotter.NewScatter(pts)
		if err != nil {
			return errors.Wrapf(err, "%s points", series.Component)
		}
		dots.GlyphStyle.Shape = draw.CircleGlyph{}
		dots.GlyphStyle.Color = clr
		dots.GlyphStyle.Radius = vg.Points(2.5)
		f.plot.Add(bars, dots)
	}
	return nil
}

func (f *RVFigure) finalize() {
	f.plot.X.Min, f.plot.X.Max = rvPhaseMin, rvPhaseMax
}

// Encode writes the figure to w in the named image format.
func (f *RVFigure) Encode(w io.Writer, format string) error {
	f.finalize()
	return f.encode(w, format)
}

// Save writes the figure to path; the extension picks the format.
func (f *RVFigure) Save(path string) error {
	f.finalize()
	return f.save(path)
}

// SkyFigure shows the relative orbit with east increasing to the left.
type SkyFigure struct {
	figure
	bounds diagnostics.Bounds
}

// NewSkyFigure sets up square east/north axes.
func NewSkyFigure(cfg diagnostics.Config) *SkyFigure {
	f := newFigure(cfg, "", "", "", cfg.FigureHeight, cfg.FigureHeight)
	f.plot.X.Label.Text = f.label(`$East (mas)$`, "East (mas)")
	f.plot.Y.Label.Text = f.label(`$North (mas)$`, "North (mas)")
	f.plot.X.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	return &SkyFigure{
		figure: f,
		bounds: diagnostics.Bounds{Lo: -skyDefaultLimit, Hi: skyDefaultLimit},
	}
}

// AddOrbit draws the relative orbit, its periastron and the line of nodes.
func (f *SkyFigure) AddOrbit(proj diagnostics.OrbitProjection) error {
	if err := f.addCurve(proj.Trace, black, nil); err != nil {
		return err
	}
	peri, err := f.addMarker(proj.Periastron, draw.BoxGlyph{}, blue)
	if err != nil {
		return errors.Wrap(err, "drawing periastron")
	}
	f.plot.Legend.Add("periastron", peri)

	nodes, err := plotter.NewLine(toXYs(proj.Nodes[:]))
	if err != nil {
		return errors.Wrap(err, "drawing line of nodes")
	}
	nodes.LineStyle.Color = grey
	nodes.LineStyle.Dashes = dashed
	f.plot.Add(nodes)
	f.plot.Legend.Add("line of nodes", nodes)

	f.fitBounds(proj.Trace.Points)
	return nil
}

// AddAstrometry draws measured positions with their error ellipses and
// adopts the overlay's bounds as axis limits.
func (f *SkyFigure) AddAstrometry(overlay diagnostics.SkyOverlay) error {
	dots, err := plotter.NewScatter(toXYs(overlay.Points))
	if err != nil {
		return errors.Wrap(err, "drawing astrometry")
	}
	dots.GlyphStyle.Shape = draw.CircleGlyph{}
	dots.GlyphStyle.Color = red
	dots.GlyphStyle.Radius = vg.Points(1)
	f.plot.Add(dots)

	for i, e := range overlay.Ellipses {
		outline, err := plotter.NewLine(ellipseOutline(e))
		if err != nil {
			return errors.Wrapf(err, "drawing ellipse %d", i)
		}
		outline.LineStyle.Color = red
		f.plot.Add(outline)
	}
	f.bounds = overlay.Bounds
	return nil
}

// fitBounds widens the default square limits to hold pts.
func (f *SkyFigure) fitBounds(pts []diagnostics.Point) {
	for _, p := range pts {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			continue
		}
		f.bounds.Lo = math.Min(f.bounds.Lo, math.Min(p.X, p.Y))
		f.bounds.Hi = math.Max(f.bounds.Hi, math.Max(p.X, p.Y))
	}
}

func (f *SkyFigure) finalize() {
	left, right := f.bounds.EastAxis()
	bottom, top := f.bounds.NorthAxis()
	// Scale is inverted, so Min/Max stay in data order.
	f.plot.X.Min, f.plot.X.Max = right, left
	f.plot.Y.Min, f.plot.Y.Max = bottom, top
}

// Bounds returns the square limits the figure will be drawn with.
func (f *SkyFigure) Bounds() diagnostics.Bounds { return f.bounds }

// Encode writes the figure to w in the named image format.
func (f *SkyFigure) Encode(w io.Writer, format string) error {
	f.finalize()
	return f.encode(w, format)
}

// Save writes the figure to path; the extension picks the format.
func (f *SkyFigure) Save(path string) error {
	f.finalize()
	return f.save(path)
}

// ellipseOutline traces e as a closed polygon. Angle is read in screen
// space, where east points left, so the major axis lies along position
// angle Angle+90 on the sky.
func ellipseOutline(e diagnostics.Ellipse) plotter.XYs {
	theta := e.Angle * math.Pi / 180
	ux, uy := -math.Cos(theta), math.Sin(theta)
	vx, vy := math.Sin(theta), math.Cos(theta)
	a, b := e.Width/2, e.Height/2

	pts := make(plotter.XYs, ellipseVertices+1)
	for i := range pts {
		t := 2 * math.Pi * float64(i) / ellipseVertices
		ca, sb := a*math.Cos(t), b*math.Sin(t)
		pts[i].X = e.Center.X + ca*ux + sb*vx
		pts[i].Y = e.Center.Y + ca*uy + sb*vy
	}
	return pts
}

func toXYs(pts []diagnostics.Point) plotter.XYs {
	xys := make(plotter.XYs, len(pts))
	for i, p := range pts {
		xys[i].X, xys[i].Y = p.X, p.Y
	}
	return xys
}

// foldedPoints adapts a folded RV series to plotter.XYer and plotter.YErrorer.
type foldedPoints struct {
	diagnostics.FoldedRV
}

func (p foldedPoints) Len() int                        { return len(p.Phases) }
func (p foldedPoints) XY(i int) (float64, float64)     { return p.Phases[i], p.RV[i] }
func (p foldedPoints) YError(i int) (float64, float64) { return p.Err[i], p.Err[i] }
