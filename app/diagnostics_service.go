package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"orbitviz/domain/core"
	"orbitviz/domain/dataset"
	"orbitviz/domain/fit"
	"orbitviz/domain/orbit"
	"orbitviz/internal"
	"orbitviz/internal/diagnostics"
	"orbitviz/internal/errors"
	"orbitviz/ports"
)

// DiagnosticsService loads observations, computes diagnostics primitives
// and hands them to a renderer
type DiagnosticsService struct {
	reader   ports.ObservationReader
	renderer ports.FigureRenderer
	runs     ports.FitRunRepository
	cfg      diagnostics.Config
	logger   *internal.Logger
}

// NewDiagnosticsService creates a diagnostics service. runs may be nil when
// no fit-run store is configured.
func NewDiagnosticsService(reader ports.ObservationReader, renderer ports.FigureRenderer, runs ports.FitRunRepository, cfg diagnostics.Config, logger *internal.Logger) *DiagnosticsService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DiagnosticsService{
		reader:   reader,
		renderer: renderer,
		runs:     runs,
		cfg:      cfg,
		logger:   logger.With("diagnostics"),
	}
}

// Config returns the render configuration in use
func (s *DiagnosticsService) Config() diagnostics.Config { return s.cfg }

// LoadScene builds the orbit described by params and overlays the
// observations at dataPath, if any. Dated observations are folded with
// params' own period and T0.
func (s *DiagnosticsService) LoadScene(ctx context.Context, params orbit.Params, dataPath string) (*diagnostics.Scene, error) {
	var ds *dataset.DataSet
	if dataPath != "" {
		var err error
		ds, err = s.reader.ReadObservations(ctx, dataPath, params.PhaseOf)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", dataPath)
		}
		s.logger.Debug("loaded %v from %s", ds.Kinds(), dataPath)
	}
	return s.BuildScene(params, ds)
}

// BuildScene computes the scene of params over ds, which may be nil.
func (s *DiagnosticsService) BuildScene(params orbit.Params, ds *dataset.DataSet) (*diagnostics.Scene, error) {
	sys, err := orbit.NewBinarySystem(params)
	if err != nil {
		return nil, err
	}
	scene, err := diagnostics.BuildScene(sys, ds, s.cfg)
	if err != nil {
		return nil, err
	}
	for _, c := range []diagnostics.Curve{scene.Curves.Primary, scene.Curves.Secondary, scene.Orbit.Trace} {
		if err := c.Err(); err != nil {
			s.logger.Warn("%v", err)
		}
	}
	return scene, nil
}

// RenderFigure encodes one figure of scene.
func (s *DiagnosticsService) RenderFigure(ctx context.Context, scene *diagnostics.Scene, kind ports.FigureKind, format string, phase *float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.renderer.RenderFigure(&buf, kind, format, scene, phase); err != nil {
		return nil, errors.Wrapf(err, "rendering %s figure", kind)
	}
	return buf.Bytes(), nil
}

// WriteFigures renders the RV and sky figures of scene into outDir and
// returns the written paths.
func (s *DiagnosticsService) WriteFigures(ctx context.Context, scene *diagnostics.Scene, outDir, format string, phase *float64) ([]string, error) {
	kinds := []ports.FigureKind{ports.FigureRV, ports.FigureSky}
	paths := make([]string, len(kinds))
	for i, kind := range kinds {
		paths[i] = filepath.Join(outDir, fmt.Sprintf("%s.%s", kind, format))
	}
	return paths, s.writeAll(ctx, scene, kinds, paths, format, []*float64{phase, phase}, 0)
}

// ScrubFrames renders one kind figure per phase, as frame_NNN files in
// outDir, with at most parallel renders in flight.
func (s *DiagnosticsService) ScrubFrames(ctx context.Context, scene *diagnostics.Scene, kind ports.FigureKind, phases []float64, outDir, format string, parallel int) ([]string, error) {
	kinds := make([]ports.FigureKind, len(phases))
	paths := make([]string, len(phases))
	at := make([]*float64, len(phases))
	for i := range phases {
		kinds[i] = kind
		paths[i] = filepath.Join(outDir, fmt.Sprintf("%s_frame_%03d.%s", kind, i, format))
		at[i] = &phases[i]
	}
	return paths, s.writeAll(ctx, scene, kinds, paths, format, at, parallel)
}

func (s *DiagnosticsService) writeAll(ctx context.Context, scene *diagnostics.Scene, kinds []ports.FigureKind, paths []string, format string, phases []*float64, parallel int) error {
	if len(paths) == 0 {
		return errors.InvalidInput("no frames to render")
	}
	if err := os.MkdirAll(filepath.Dir(paths[0]), 0o755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}
	g, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i := range paths {
		g.Go(func() error {
			img, err := s.RenderFigure(ctx, scene, kinds[i], format, phases[i])
			if err != nil {
				return err
			}
			if err := os.WriteFile(paths[i], img, 0o644); err != nil {
				return errors.Wrapf(err, "writing %s", paths[i])
			}
			s.logger.Debug("wrote %s", paths[i])
			return nil
		})
	}
	return g.Wait()
}

// SaveRun stores a fit run
func (s *DiagnosticsService) SaveRun(ctx context.Context, res *fit.Result) (core.RunID, error) {
	if s.runs == nil {
		return "", errors.ConfigInvalid("no fit-run store configured")
	}
	id, err := s.runs.Save(ctx, res)
	if err != nil {
		return "", err
	}
	s.logger.Info("stored fit run %s (%d parameters, %d free)", id, len(res.Names), len(res.FreeNames()))
	return id, nil
}

// ListRuns lists stored fit runs, newest first
func (s *DiagnosticsService) ListRuns(ctx context.Context, limit int) ([]ports.FitRunSummary, error) {
	if s.runs == nil {
		return nil, errors.ConfigInvalid("no fit-run store configured")
	}
	return s.runs.List(ctx, limit)
}

// LoadRun fetches a stored fit run
func (s *DiagnosticsService) LoadRun(ctx context.Context, id core.RunID) (*fit.Result, error) {
	if s.runs == nil {
		return nil, errors.ConfigInvalid("no fit-run store configured")
	}
	return s.runs.Get(ctx, id)
}

// CornerResult is a rendered corner diagram with the request that drew it.
type CornerResult struct {
	Request diagnostics.CornerRequest
	Summary diagnostics.PosteriorSummary
	PNG     []byte
}

// Corner maps res to a corner request, summarizes its samples and renders
// the diagram.
func (s *DiagnosticsService) Corner(ctx context.Context, res *fit.Result) (*CornerResult, error) {
	req, err := diagnostics.MapCornerLabels(res, s.cfg)
	if err != nil {
		return nil, err
	}
	summary, err := diagnostics.Summarize(req.Samples)
	if err != nil {
		return nil, errors.Wrap(err, "summarizing posterior")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := s.renderer.RenderCorner(&buf, req); err != nil {
		return nil, errors.Wrap(err, "rendering corner plot")
	}
	return &CornerResult{Request: req, Summary: summary, PNG: buf.Bytes()}, nil
}
