package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"orbitviz/domain/dataset"
	"orbitviz/internal"
	"orbitviz/internal/errors"
)

func writeWorkbook(t *testing.T, sheets map[string][][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell := fmt.Sprintf("A%d", i+1)
			r := row
			require.NoError(t, f.SetSheetRow(name, cell, &r))
		}
	}
	path := filepath.Join(t.TempDir(), "observations.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func newTestReader() *DataReader {
	return NewDataReader(internal.NewLogger(internal.LogLevelError))
}

func TestReadWorkbook(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"RV1": {
			{"phase", "rv", "err"},
			{0.1, 12.5, 1.0},
			{0.6, -8.0, 1.5},
		},
		"RV2": {
			{"MJD", "RV", "Err"},
			{58010, -20, 2},
		},
		"AS": {
			{"east", "north", "major", "minor", "pa"},
			{1, 2, 0.1, 0.05, 10},
			{-1, -2, 0.1, 0.05, 190},
		},
		"Notes": {
			{"observer", "night"},
			{"someone", "1"},
		},
	})

	phaseOf := func(mjd float64) float64 { return (mjd - 58000) / 100 }
	ds, err := newTestReader().ReadObservations(context.Background(), path, phaseOf)
	require.NoError(t, err)
	assert.Equal(t, []dataset.Kind{dataset.KindRV1, dataset.KindRV2, dataset.KindAS}, ds.Kinds())

	rv1, ok := ds.RV(dataset.KindRV1)
	require.True(t, ok)
	assert.Equal(t, []float64{0.1, 0.6}, rv1.Phases)
	assert.Equal(t, []float64{1.0, 1.5}, rv1.Err)

	rv2, ok := ds.RV(dataset.KindRV2)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{0.1}, rv2.Phases, 1e-12)

	as, ok := ds.Astrometry()
	require.True(t, ok)
	assert.Equal(t, []float64{10, 190}, as.PAs)
}

func TestReadWorkbookMissingColumn(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"AS": {
			{"east", "north", "major", "minor"},
			{1, 2, 0.1, 0.05},
		},
	})
	_, err := newTestReader().ReadObservations(context.Background(), path, nil)
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestReadCSV(t *testing.T) {
	body := "kind,phase,rv,err,east,north,major,minor,pa\n" +
		"RV1,0.25,10,1,,,,,\n" +
		"RV2,0.25,-12,2,,,,,\n" +
		"AS,,,,1.5,-0.5,0.2,0.1,45\n" +
		"XX,0.5,1,1,,,,,\n" +
		"\n"
	path := filepath.Join(t.TempDir(), "obs.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	ds, err := newTestReader().ReadObservations(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, []dataset.Kind{dataset.KindRV1, dataset.KindRV2, dataset.KindAS}, ds.Kinds())

	rv2, _ := ds.RV(dataset.KindRV2)
	assert.Equal(t, []float64{-12}, rv2.RV)
	as, _ := ds.Astrometry()
	assert.Equal(t, []float64{45}, as.PAs)
}

func TestReadCSVNeedsKindColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obs.csv")
	require.NoError(t, os.WriteFile(path, []byte("phase,rv,err\n0.1,1,1\n"), 0o644))
	_, err := newTestReader().ReadObservations(context.Background(), path, nil)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestReadObservationsRejectsUnknownFiles(t *testing.T) {
	r := newTestReader()
	_, err := r.ReadObservations(context.Background(), filepath.Join(t.TempDir(), "none.xlsx"), nil)
	assert.True(t, errors.IsConfigurationError(err))

	path := filepath.Join(t.TempDir(), "obs.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	_, err = r.ReadObservations(context.Background(), path, nil)
	assert.True(t, errors.IsConfigurationError(err))
}
