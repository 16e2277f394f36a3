// Package jsondata reads observations, orbital elements and fit results
// from JSON documents.
package jsondata

import (
	"context"
	"encoding/json"
	"os"

	"github.com/tidwall/gjson"
	"gonum.org/v1/gonum/mat"

	"orbitviz/domain/dataset"
	"orbitviz/domain/fit"
	"orbitviz/domain/orbit"
	"orbitviz/internal/errors"
	"orbitviz/ports"
)

// Reader implements ports.ObservationReader for JSON files.
type Reader struct{}

var _ ports.ObservationReader = Reader{}

// ReadObservations reads a dataset document. Each RV series may carry
// "mjd" instead of "phases", in which case phaseOf is required.
func (Reader) ReadObservations(ctx context.Context, path string, phaseOf ports.PhaseFunc) (*dataset.DataSet, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return ParseDataSet(body, phaseOf)
}

// ParseDataSet decodes {"RV1": {...}, "RV2": {...}, "AS": {...}}.
// Keys other than the recognized kinds are ignored.
func ParseDataSet(body []byte, phaseOf ports.PhaseFunc) (*dataset.DataSet, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.ConfigInvalid("dataset document is not valid JSON")
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, errors.ConfigInvalid("dataset document must be an object")
	}

	ds := dataset.New()
	var parseErr error
	doc.ForEach(func(key, value gjson.Result) bool {
		kind, ok := dataset.ParseKind(key.String())
		if !ok {
			return true
		}
		var entry dataset.Entry
		if kind == dataset.KindAS {
			entry, parseErr = parseAstrometry(value)
		} else {
			entry, parseErr = parseRV(kind, value, phaseOf)
		}
		if parseErr != nil {
			parseErr = errors.Wrapf(parseErr, "%s", kind)
			return false
		}
		ds.Put(entry)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

func parseRV(kind dataset.Kind, v gjson.Result, phaseOf ports.PhaseFunc) (dataset.RVPayload, error) {
	p := dataset.RVPayload{Component: kind}
	var err error
	if v.Get("phases").Exists() {
		if p.Phases, err = floatArray(v, "phases"); err != nil {
			return p, err
		}
	} else {
		if phaseOf == nil {
			return p, errors.ConfigInvalid("series has dates but no orbital elements to fold them")
		}
		mjd, err := floatArray(v, "mjd")
		if err != nil {
			return p, err
		}
		p.Phases = make([]float64, len(mjd))
		for i, t := range mjd {
			p.Phases[i] = phaseOf(t)
		}
	}
	if p.RV, err = floatArray(v, "rv"); err != nil {
		return p, err
	}
	if p.Err, err = floatArray(v, "err"); err != nil {
		return p, err
	}
	return p, nil
}

func parseAstrometry(v gjson.Result) (dataset.ASPayload, error) {
	var p dataset.ASPayload
	fields := []struct {
		key string
		dst *[]float64
	}{
		{"easts", &p.Easts},
		{"norths", &p.Norths},
		{"majors", &p.Majors},
		{"minors", &p.Minors},
		{"pas", &p.PAs},
	}
	for _, f := range fields {
		vals, err := floatArray(v, f.key)
		if err != nil {
			return p, err
		}
		*f.dst = vals
	}
	return p, nil
}

func floatArray(v gjson.Result, key string) ([]float64, error) {
	field := v.Get(key)
	if !field.Exists() {
		return nil, errors.ConfigInvalidf("missing %q", key)
	}
	if !field.IsArray() {
		return nil, errors.ConfigInvalidf("%q must be an array", key)
	}
	items := field.Array()
	out := make([]float64, len(items))
	for i, item := range items {
		if item.Type != gjson.Number {
			return nil, errors.ConfigInvalidf("%q[%d] is not a number", key, i)
		}
		out[i] = item.Float()
	}
	return out, nil
}

// ParseParams decodes orbital elements keyed by their conventional names.
// t0 defaults to 0 and gamma2 to gamma1; every other element is required.
func ParseParams(body []byte) (orbit.Params, error) {
	if !gjson.ValidBytes(body) {
		return orbit.Params{}, errors.ConfigInvalid("parameter document is not valid JSON")
	}
	var probe orbit.Params
	values := make(map[string]float64)
	var bad error
	gjson.ParseBytes(body).ForEach(func(key, field gjson.Result) bool {
		name := key.String()
		if field.Type != gjson.Number {
			if _, known := probe.Get(name); known {
				bad = errors.ConfigInvalidf("orbital element %q is not a number", name)
				return false
			}
			return true
		}
		values[name] = field.Float()
		return true
	})
	if bad != nil {
		return orbit.Params{}, bad
	}
	return orbit.ParamsFromMap(values)
}

// ParseFitResult decodes {"var_names": [...], "params": {name: {"value", "vary"}},
// "flatchain": [[...], ...]}. Without var_names the params object order is used.
func ParseFitResult(body []byte) (*fit.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.ConfigInvalid("fit document is not valid JSON")
	}
	doc := gjson.ParseBytes(body)
	params := doc.Get("params")
	if !params.IsObject() {
		return nil, errors.ConfigInvalid(`fit document needs a "params" object`)
	}

	r := &fit.Result{
		Label:  doc.Get("label").String(),
		Params: make(map[string]fit.Parameter),
	}
	var order []string
	params.ForEach(func(key, value gjson.Result) bool {
		r.Params[key.String()] = fit.Parameter{
			Value: value.Get("value").Float(),
			Vary:  value.Get("vary").Bool(),
		}
		order = append(order, key.String())
		return true
	})
	if names := doc.Get("var_names"); names.Exists() {
		for _, n := range names.Array() {
			r.Names = append(r.Names, n.String())
		}
	} else {
		r.Names = order
	}

	samples, err := parseChain(doc.Get("flatchain"))
	if err != nil {
		return nil, err
	}
	r.Samples = samples
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func parseChain(chain gjson.Result) (*mat.Dense, error) {
	if !chain.Exists() {
		return nil, nil
	}
	rows := chain.Array()
	if len(rows) == 0 {
		return nil, nil
	}
	cols := len(rows[0].Array())
	if cols == 0 {
		return nil, errors.ConfigInvalid("flatchain rows are empty")
	}
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		vals := row.Array()
		if len(vals) != cols {
			return nil, errors.ConfigInvalidf("flatchain row %d has %d columns, want %d", i, len(vals), cols)
		}
		for j, v := range vals {
			if v.Type != gjson.Number {
				return nil, errors.ConfigInvalidf("flatchain[%d][%d] is not a number", i, j)
			}
			data = append(data, v.Float())
		}
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// MarshalDataSet encodes ds in the document shape ParseDataSet reads.
func MarshalDataSet(ds *dataset.DataSet) ([]byte, error) {
	doc := make(map[string]interface{})
	for _, kind := range ds.Kinds() {
		switch kind {
		case dataset.KindAS:
			p, _ := ds.Astrometry()
			doc[kind.String()] = p
		default:
			p, _ := ds.RV(kind)
			doc[kind.String()] = p
		}
	}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encoding dataset")
	}
	return body, nil
}

// MarshalFitResult encodes r in the document shape ParseFitResult reads.
func MarshalFitResult(r *fit.Result) ([]byte, error) {
	doc := struct {
		Label     string                   `json:"label,omitempty"`
		VarNames  []string                 `json:"var_names"`
		Params    map[string]fit.Parameter `json:"params"`
		Flatchain [][]float64              `json:"flatchain,omitempty"`
	}{
		Label:    r.Label,
		VarNames: r.Names,
		Params:   r.Params,
	}
	if r.Samples != nil {
		rows, _ := r.Samples.Dims()
		doc.Flatchain = make([][]float64, rows)
		for i := range doc.Flatchain {
			doc.Flatchain[i] = mat.Row(nil, i, r.Samples)
		}
	}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encoding fit result")
	}
	return body, nil
}
