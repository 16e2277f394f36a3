package jsondata

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbitviz/domain/dataset"
	"orbitviz/internal/errors"
)

const datasetDoc = `{
  "RV1": {"phases": [0.1, 0.6], "rv": [12.5, -8.0], "err": [1.0, 1.5]},
  "RV2": {"mjd": [58010, 58060], "rv": [-20, 15], "err": [2, 2]},
  "AS":  {"easts": [1, -1], "norths": [2, -2], "majors": [0.1, 0.1], "minors": [0.05, 0.05], "pas": [10, 190]},
  "VIS": {"anything": true}
}`

func TestParseDataSet(t *testing.T) {
	phaseOf := func(mjd float64) float64 { return (mjd - 58000) / 100 }
	ds, err := ParseDataSet([]byte(datasetDoc), phaseOf)
	require.NoError(t, err)

	assert.Equal(t, []dataset.Kind{dataset.KindRV1, dataset.KindRV2, dataset.KindAS}, ds.Kinds())

	rv1, ok := ds.RV(dataset.KindRV1)
	require.True(t, ok)
	assert.Equal(t, []float64{0.1, 0.6}, rv1.Phases)
	assert.Equal(t, []float64{12.5, -8.0}, rv1.RV)

	rv2, ok := ds.RV(dataset.KindRV2)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{0.1, 0.6}, rv2.Phases, 1e-12)

	as, ok := ds.Astrometry()
	require.True(t, ok)
	assert.Equal(t, []float64{10, 190}, as.PAs)
}

func TestParseDataSetNeedsPhaseFuncForDates(t *testing.T) {
	_, err := ParseDataSet([]byte(datasetDoc), nil)
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestParseDataSetRejectsMalformed(t *testing.T) {
	cases := []string{
		`not json`,
		`[1, 2]`,
		`{"RV1": {"phases": [0.1], "rv": [1]}}`,
		`{"RV1": {"phases": [0.1], "rv": ["x"], "err": [1]}}`,
		`{"RV1": {"phases": [0.1, 0.2], "rv": [1], "err": [1]}}`,
		`{"AS": {"easts": 1, "norths": [], "majors": [], "minors": [], "pas": []}}`,
	}
	for _, doc := range cases {
		_, err := ParseDataSet([]byte(doc), nil)
		assert.True(t, errors.IsConfigurationError(err), "doc %s", doc)
	}
}

func TestReaderReadObservations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obs.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"AS": {"easts": [1], "norths": [1], "majors": [1], "minors": [1], "pas": [0]}}`), 0o644))

	ds, err := Reader{}.ReadObservations(context.Background(), path, nil)
	require.NoError(t, err)
	_, ok := ds.Astrometry()
	assert.True(t, ok)

	_, err = Reader{}.ReadObservations(context.Background(), filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)
}

func TestMarshalDataSetRoundTrip(t *testing.T) {
	ds, err := ParseDataSet([]byte(datasetDoc), func(mjd float64) float64 { return 0.5 })
	require.NoError(t, err)

	body, err := MarshalDataSet(ds)
	require.NoError(t, err)
	again, err := ParseDataSet(body, nil)
	require.NoError(t, err)
	assert.Equal(t, ds.Kinds(), again.Kinds())
	rv2, _ := again.RV(dataset.KindRV2)
	assert.Equal(t, []float64{0.5, 0.5}, rv2.Phases)
}

func TestParseParams(t *testing.T) {
	p, err := ParseParams([]byte(`{"e": 0.3, "i": 60, "omega": 120, "Omega": 40, "k1": 30, "k2": 40, "p": 100, "gamma1": 5, "d": 100}`))
	require.NoError(t, err)
	assert.Equal(t, 0.3, p.E)
	assert.Equal(t, 120.0, p.Omega)
	assert.Equal(t, 40.0, p.BigOmega)
	assert.Equal(t, 5.0, p.Gamma2)
	assert.Zero(t, p.T0)

	_, err = ParseParams([]byte(`{"e": 0.3}`))
	assert.True(t, errors.IsConfigurationError(err))

	_, err = ParseParams([]byte(`{"e": "high", "i": 60, "omega": 1, "Omega": 1, "k1": 1, "k2": 1, "p": 1, "gamma1": 0, "d": 1}`))
	assert.True(t, errors.IsConfigurationError(err))
}

func TestParseFitResult(t *testing.T) {
	doc := `{
	  "label": "run A",
	  "var_names": ["e", "i", "omega"],
	  "params": {
	    "e": {"value": 0.3, "vary": true},
	    "i": {"value": 60, "vary": false},
	    "omega": {"value": 120, "vary": true}
	  },
	  "flatchain": [[0.29, 119], [0.31, 121], [0.30, 120]]
	}`
	r, err := ParseFitResult([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "run A", r.Label)
	assert.Equal(t, []string{"e", "i", "omega"}, r.Names)
	assert.Equal(t, []string{"e", "omega"}, r.FreeNames())
	rows, cols := r.Samples.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, 121.0, r.Samples.At(1, 1))
}

func TestParseFitResultOrderFallsBackToParams(t *testing.T) {
	r, err := ParseFitResult([]byte(`{"params": {"p": {"value": 10, "vary": true}, "e": {"value": 0.1, "vary": false}}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"p", "e"}, r.Names)
	assert.Nil(t, r.Samples)
}

func TestParseFitResultRejectsRaggedChain(t *testing.T) {
	_, err := ParseFitResult([]byte(`{"params": {"e": {"value": 0.1, "vary": true}}, "flatchain": [[1], [1, 2]]}`))
	assert.True(t, errors.IsConfigurationError(err))
}

func TestParseFitResultRejectsNonNumericChain(t *testing.T) {
	_, err := ParseFitResult([]byte(`{"params": {"e": {"value": 0.1, "vary": true}}, "flatchain": [[0.1], ["x"]]}`))
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "flatchain[1][0]")
}

func TestMarshalFitResultRoundTrip(t *testing.T) {
	doc := `{
	  "label": "run B",
	  "var_names": ["p", "e"],
	  "params": {"e": {"value": 0.2, "vary": true}, "p": {"value": 400, "vary": false}},
	  "flatchain": [[0.19], [0.21]]
	}`
	r, err := ParseFitResult([]byte(doc))
	require.NoError(t, err)

	body, err := MarshalFitResult(r)
	require.NoError(t, err)
	back, err := ParseFitResult(body)
	require.NoError(t, err)
	assert.Equal(t, r.Names, back.Names)
	assert.Equal(t, r.Params, back.Params)
	assert.Equal(t, 0.21, back.Samples.At(1, 0))
}
