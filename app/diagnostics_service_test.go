package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"orbitviz/domain/core"
	"orbitviz/domain/dataset"
	"orbitviz/domain/fit"
	"orbitviz/domain/orbit"
	"orbitviz/internal"
	"orbitviz/internal/diagnostics"
	"orbitviz/internal/errors"
	"orbitviz/ports"
)

// Mock implementations for testing
type MockObservationReader struct {
	mock.Mock
}

func (m *MockObservationReader) ReadObservations(ctx context.Context, path string, phaseOf ports.PhaseFunc) (*dataset.DataSet, error) {
	args := m.Called(ctx, path, phaseOf)
	ds, _ := args.Get(0).(*dataset.DataSet)
	return ds, args.Error(1)
}

type MockFigureRenderer struct {
	mock.Mock
}

func (m *MockFigureRenderer) RenderFigure(w io.Writer, kind ports.FigureKind, format string, scene *diagnostics.Scene, phase *float64) error {
	args := m.Called(w, kind, format, scene, phase)
	return args.Error(0)
}

func (m *MockFigureRenderer) RenderCorner(w io.Writer, req diagnostics.CornerRequest) error {
	args := m.Called(w, req)
	return args.Error(0)
}

type MockFitRunRepository struct {
	mock.Mock
}

func (m *MockFitRunRepository) Save(ctx context.Context, r *fit.Result) (core.RunID, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(core.RunID), args.Error(1)
}

func (m *MockFitRunRepository) Get(ctx context.Context, id core.RunID) (*fit.Result, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*fit.Result)
	return r, args.Error(1)
}

func (m *MockFitRunRepository) List(ctx context.Context, limit int) ([]ports.FitRunSummary, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]ports.FitRunSummary), args.Error(1)
}

func (m *MockFitRunRepository) Delete(ctx context.Context, id core.RunID) error {
	return m.Called(ctx, id).Error(0)
}

var testParams = orbit.Params{
	E: 0.3, I: 60, Omega: 40, BigOmega: 100, T0: 58000,
	K1: 30, K2: 40, P: 250, Gamma1: 5, Gamma2: 5, D: 120,
}

func writeBytes(b string) func(mock.Arguments) {
	return func(args mock.Arguments) {
		args.Get(0).(io.Writer).Write([]byte(b))
	}
}

func newTestService(reader ports.ObservationReader, renderer ports.FigureRenderer, runs ports.FitRunRepository) *DiagnosticsService {
	return NewDiagnosticsService(reader, renderer, runs, diagnostics.DefaultConfig(), internal.NewLogger(internal.LogLevelError))
}

func TestLoadSceneFoldsWithParams(t *testing.T) {
	reader := &MockObservationReader{}
	ds := dataset.New(dataset.RVPayload{
		Component: dataset.KindRV1, Phases: []float64{0.2}, RV: []float64{12}, Err: []float64{1},
	})
	reader.On("ReadObservations", mock.Anything, "obs.json", mock.AnythingOfType("ports.PhaseFunc")).
		Run(func(args mock.Arguments) {
			phaseOf := args.Get(2).(ports.PhaseFunc)
			assert.InDelta(t, 0.5, phaseOf(testParams.T0+testParams.P/2), 1e-12)
		}).
		Return(ds, nil)

	svc := newTestService(reader, &MockFigureRenderer{}, nil)
	scene, err := svc.LoadScene(context.Background(), testParams, "obs.json")
	require.NoError(t, err)
	require.Len(t, scene.RV.Series, 1)
	assert.Nil(t, scene.Sky)
	reader.AssertExpectations(t)
}

func TestLoadSceneWithoutData(t *testing.T) {
	reader := &MockObservationReader{}
	svc := newTestService(reader, &MockFigureRenderer{}, nil)

	scene, err := svc.LoadScene(context.Background(), testParams, "")
	require.NoError(t, err)
	assert.Empty(t, scene.RV.Series)
	reader.AssertNotCalled(t, "ReadObservations", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoadSceneRejectsInvalidParams(t *testing.T) {
	svc := newTestService(&MockObservationReader{}, &MockFigureRenderer{}, nil)
	bad := testParams
	bad.E = 1.2
	_, err := svc.LoadScene(context.Background(), bad, "")
	assert.True(t, errors.IsConfigurationError(err))
}

func TestWriteFigures(t *testing.T) {
	renderer := &MockFigureRenderer{}
	renderer.On("RenderFigure", mock.Anything, ports.FigureRV, "png", mock.Anything, mock.Anything).Run(writeBytes("rv")).Return(nil)
	renderer.On("RenderFigure", mock.Anything, ports.FigureSky, "png", mock.Anything, mock.Anything).Run(writeBytes("sky")).Return(nil)

	svc := newTestService(&MockObservationReader{}, renderer, nil)
	scene, err := svc.BuildScene(testParams, nil)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := svc.WriteFigures(context.Background(), scene, dir, "png", nil)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "rv.png"), filepath.Join(dir, "sky.png")}, paths)

	body, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, "sky", string(body))
	renderer.AssertExpectations(t)
}

func TestScrubFrames(t *testing.T) {
	renderer := &MockFigureRenderer{}
	renderer.On("RenderFigure", mock.Anything, ports.FigureSky, "png", mock.Anything, mock.AnythingOfType("*float64")).Run(writeBytes("frame")).Return(nil)

	svc := newTestService(&MockObservationReader{}, renderer, nil)
	scene, err := svc.BuildScene(testParams, nil)
	require.NoError(t, err)

	dir := t.TempDir()
	paths, err := svc.ScrubFrames(context.Background(), scene, ports.FigureSky, []float64{0, 0.25, 0.5}, dir, "png", 2)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "sky_frame_002.png"), paths[2])
	renderer.AssertNumberOfCalls(t, "RenderFigure", 3)

	_, err = svc.ScrubFrames(context.Background(), scene, ports.FigureSky, nil, dir, "png", 2)
	assert.Error(t, err)
}

func TestScrubFramesStopsOnRenderError(t *testing.T) {
	renderer := &MockFigureRenderer{}
	renderer.On("RenderFigure", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.DomainComputation("marker is not finite"))

	svc := newTestService(&MockObservationReader{}, renderer, nil)
	scene, err := svc.BuildScene(testParams, nil)
	require.NoError(t, err)

	_, err = svc.ScrubFrames(context.Background(), scene, ports.FigureRV, []float64{0.1}, t.TempDir(), "png", 1)
	require.Error(t, err)
	assert.True(t, errors.IsDomainComputationError(err))
}

func sampleRun() *fit.Result {
	return &fit.Result{
		Names: []string{"e", "i", "p"},
		Params: map[string]fit.Parameter{
			"e": {Value: 0.3, Vary: true},
			"i": {Value: 60},
			"p": {Value: 250, Vary: true},
		},
		Samples: mat.NewDense(4, 2, []float64{0.29, 249, 0.30, 250, 0.31, 251, 0.30, 250}),
	}
}

func TestCorner(t *testing.T) {
	renderer := &MockFigureRenderer{}
	renderer.On("RenderCorner", mock.Anything, mock.MatchedBy(func(req diagnostics.CornerRequest) bool {
		return len(req.Labels) == 3 && len(req.Truths) == 2
	})).Run(writeBytes("png")).Return(nil)

	svc := newTestService(&MockObservationReader{}, renderer, nil)
	out, err := svc.Corner(context.Background(), sampleRun())
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), out.PNG)
	assert.Equal(t, []int{0, 2}, out.Request.FreeIndices)
	assert.Equal(t, 0.30, out.Summary.Median[0])
	renderer.AssertExpectations(t)
}

func TestRunsRequireStore(t *testing.T) {
	svc := newTestService(&MockObservationReader{}, &MockFigureRenderer{}, nil)
	_, err := svc.SaveRun(context.Background(), sampleRun())
	assert.True(t, errors.IsConfigurationError(err))
	_, err = svc.ListRuns(context.Background(), 10)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestSaveAndLoadRun(t *testing.T) {
	runs := &MockFitRunRepository{}
	id := core.NewRunID()
	run := sampleRun()
	runs.On("Save", mock.Anything, run).Return(id, nil)
	runs.On("Get", mock.Anything, id).Return(run, nil)

	svc := newTestService(&MockObservationReader{}, &MockFigureRenderer{}, runs)
	got, err := svc.SaveRun(context.Background(), run)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	loaded, err := svc.LoadRun(context.Background(), id)
	require.NoError(t, err)
	assert.Same(t, run, loaded)
	runs.AssertExpectations(t)
}

func TestReadersByExtension(t *testing.T) {
	jsonReader := &MockObservationReader{}
	jsonReader.On("ReadObservations", mock.Anything, "data/OBS.JSON", mock.Anything).Return(dataset.New(), nil)
	readers := ReadersByExtension{".json": jsonReader}

	_, err := readers.ReadObservations(context.Background(), "data/OBS.JSON", nil)
	require.NoError(t, err)

	_, err = readers.ReadObservations(context.Background(), "data/obs.fits", nil)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}
