// Package excel reads observation tables from workbooks and CSV files.
package excel

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"orbitviz/domain/dataset"
	"orbitviz/internal"
	"orbitviz/internal/errors"
	"orbitviz/ports"
)

// Column headers recognized in observation tables.
const (
	colKind  = "kind"
	colPhase = "phase"
	colMJD   = "mjd"
	colRV    = "rv"
	colErr   = "err"
	colEast  = "east"
	colNorth = "north"
	colMajor = "major"
	colMinor = "minor"
	colPA    = "pa"
)

// DataReader reads workbooks (one sheet per kind: RV1, RV2, AS) and CSV
// files (one row per observation with a leading kind column).
type DataReader struct {
	logger *internal.Logger
}

var _ ports.ObservationReader = (*DataReader)(nil)

// NewDataReader creates a reader that logs through logger, or the default logger when nil.
func NewDataReader(logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{logger: logger.With("excel")}
}

// ReadObservations picks the format from the file extension.
func (r *DataReader) ReadObservations(ctx context.Context, path string, phaseOf ports.PhaseFunc) (*dataset.DataSet, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.ConfigInvalidf("observation file not found: %s", path)
	}

	start := time.Now()
	var (
		ds  *dataset.DataSet
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		ds, err = r.readCSV(path, phaseOf)
	case ".xlsx", ".xlsm":
		ds, err = r.readWorkbook(path, phaseOf)
	default:
		return nil, errors.ConfigInvalidf("unsupported observation file type: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	r.logger.Debug("[DataReader] %s read in %.2fms (kinds %v)", path, float64(time.Since(start).Nanoseconds())/1e6, ds.Kinds())
	return ds, nil
}

func (r *DataReader) readWorkbook(path string, phaseOf ports.PhaseFunc) (*dataset.DataSet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to open workbook")
	}
	defer f.Close()

	ds := dataset.New()
	for _, sheet := range f.GetSheetList() {
		kind, ok := dataset.ParseKind(strings.TrimSpace(sheet))
		if !ok {
			r.logger.Trace("[DataReader] skipping sheet %q", sheet)
			continue
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read sheet %s", sheet)
		}
		if len(rows) == 0 {
			continue
		}
		tbl := newTable(rows[0])
		entry, err := tbl.entry(kind, rows[1:], phaseOf)
		if err != nil {
			return nil, errors.Wrapf(err, "sheet %s", sheet)
		}
		ds.Put(entry)
	}
	return ds, nil
}

func (r *DataReader) readCSV(path string, phaseOf ports.PhaseFunc) (*dataset.DataSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open CSV file %s", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to read CSV file")
	}
	if len(rows) == 0 {
		return dataset.New(), nil
	}

	tbl := newTable(rows[0])
	kindCol, ok := tbl.index[colKind]
	if !ok {
		return nil, errors.ConfigInvalid(`CSV observations need a "kind" column`)
	}

	grouped := make(map[dataset.Kind][][]string)
	for _, row := range rows[1:] {
		if kindCol >= len(row) {
			continue
		}
		kind, ok := dataset.ParseKind(strings.TrimSpace(row[kindCol]))
		if !ok {
			continue
		}
		grouped[kind] = append(grouped[kind], row)
	}

	ds := dataset.New()
	for _, kind := range dataset.Kinds {
		kindRows, ok := grouped[kind]
		if !ok {
			continue
		}
		entry, err := tbl.entry(kind, kindRows, phaseOf)
		if err != nil {
			return nil, errors.Wrapf(err, "%s rows", kind)
		}
		ds.Put(entry)
	}
	return ds, nil
}

// table maps header names onto column positions.
type table struct {
	index map[string]int
}

func newTable(header []string) table {
	t := table{index: make(map[string]int, len(header))}
	for i, h := range header {
		t.index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return t
}

func (t table) entry(kind dataset.Kind, rows [][]string, phaseOf ports.PhaseFunc) (dataset.Entry, error) {
	rows = dropBlank(rows)
	if kind == dataset.KindAS {
		return t.astrometry(rows)
	}
	return t.radialVelocity(kind, rows, phaseOf)
}

func (t table) radialVelocity(kind dataset.Kind, rows [][]string, phaseOf ports.PhaseFunc) (dataset.RVPayload, error) {
	p := dataset.RVPayload{Component: kind}
	var err error
	if _, ok := t.index[colPhase]; ok {
		if p.Phases, err = t.column(rows, colPhase); err != nil {
			return p, err
		}
	} else {
		if phaseOf == nil {
			return p, errors.ConfigInvalid("dated observations need orbital elements to fold them")
		}
		mjd, err := t.column(rows, colMJD)
		if err != nil {
			return p, err
		}
		p.Phases = make([]float64, len(mjd))
		for i, d := range mjd {
			p.Phases[i] = phaseOf(d)
		}
	}
	if p.RV, err = t.column(rows, colRV); err != nil {
		return p, err
	}
	if p.Err, err = t.column(rows, colErr); err != nil {
		return p, err
	}
	return p, nil
}

func (t table) astrometry(rows [][]string) (dataset.ASPayload, error) {
	var p dataset.ASPayload
	cols := []struct {
		name string
		dst  *[]float64
	}{
		{colEast, &p.Easts},
		{colNorth, &p.Norths},
		{colMajor, &p.Majors},
		{colMinor, &p.Minors},
		{colPA, &p.PAs},
	}
	for _, c := range cols {
		vals, err := t.column(rows, c.name)
		if err != nil {
			return p, err
		}
		*c.dst = vals
	}
	return p, nil
}

func (t table) column(rows [][]string, name string) ([]float64, error) {
	idx, ok := t.index[name]
	if !ok {
		return nil, errors.ConfigInvalidf("missing %q column", name)
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		if idx >= len(row) {
			return nil, errors.ConfigInvalidf("observation %d has no %q value", i+1, name)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
		if err != nil {
			return nil, errors.ConfigInvalidf("observation %d: %q value %q is not a number", i+1, name, row[idx])
		}
		out[i] = v
	}
	return out, nil
}

func dropBlank(rows [][]string) [][]string {
	kept := rows[:0:0]
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				kept = append(kept, row)
				break
			}
		}
	}
	return kept
}
