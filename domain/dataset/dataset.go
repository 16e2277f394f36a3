// Package dataset holds the observational data overlaid on the model curves.
package dataset

import (
	"sort"

	"orbitviz/internal/errors"
)

// Kind is the closed set of observation kinds.
type Kind int

const (
	KindRV1 Kind = iota + 1
	KindRV2
	KindAS
)

// Kinds lists every recognized kind in rendering order.
var Kinds = []Kind{KindRV1, KindRV2, KindAS}

func (k Kind) String() string {
	switch k {
	case KindRV1:
		return "RV1"
	case KindRV2:
		return "RV2"
	case KindAS:
		return "AS"
	}
	return "unknown"
}

// MarshalText encodes k by its tag.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := ParseKind(k.String()); !ok {
		return nil, errors.InvalidInput("cannot encode unknown observation kind")
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a tag; unknown tags are rejected.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, ok := ParseKind(string(b))
	if !ok {
		return errors.InvalidInput("unknown observation kind " + string(b))
	}
	*k = parsed
	return nil
}

// ParseKind maps a tag onto a Kind. Unknown tags report false and are
// meant to be skipped by callers, not treated as errors.
func ParseKind(tag string) (Kind, bool) {
	switch tag {
	case "RV1":
		return KindRV1, true
	case "RV2":
		return KindRV2, true
	case "AS":
		return KindAS, true
	}
	return 0, false
}

// Entry is one typed payload of a DataSet. Only RVPayload and ASPayload implement it.
type Entry interface {
	Kind() Kind
	Len() int
	Validate() error
	isEntry()
}

// RVPayload is a radial-velocity series for one component.
type RVPayload struct {
	Component Kind      `json:"-"`
	Phases    []float64 `json:"phases"`
	RV        []float64 `json:"rv"`
	Err       []float64 `json:"err"`
}

func (p RVPayload) Kind() Kind { return p.Component }
func (p RVPayload) Len() int   { return len(p.Phases) }
func (RVPayload) isEntry()     {}

// Validate checks the component tag and that all three series line up.
func (p RVPayload) Validate() error {
	if p.Component != KindRV1 && p.Component != KindRV2 {
		return errors.ConfigInvalidf("radial velocity payload tagged %s", p.Component)
	}
	if len(p.RV) != len(p.Phases) || len(p.Err) != len(p.Phases) {
		return errors.ConfigInvalidf("%s payload length mismatch: phases=%d rv=%d err=%d",
			p.Component, len(p.Phases), len(p.RV), len(p.Err))
	}
	return nil
}

// ASPayload is a set of relative astrometric measurements.
type ASPayload struct {
	Easts  []float64 `json:"easts"`
	Norths []float64 `json:"norths"`
	Majors []float64 `json:"majors"`
	Minors []float64 `json:"minors"`
	PAs    []float64 `json:"pas"`
}

func (ASPayload) Kind() Kind { return KindAS }
func (p ASPayload) Len() int { return len(p.Easts) }
func (ASPayload) isEntry()   {}

// Validate checks that all five series line up.
func (p ASPayload) Validate() error {
	n := len(p.Easts)
	if len(p.Norths) != n || len(p.Majors) != n || len(p.Minors) != n || len(p.PAs) != n {
		return errors.ConfigInvalidf("AS payload length mismatch: easts=%d norths=%d majors=%d minors=%d pas=%d",
			n, len(p.Norths), len(p.Majors), len(p.Minors), len(p.PAs))
	}
	return nil
}

// DataSet maps each present kind to its payload. Absent kinds are not rendered.
type DataSet struct {
	entries map[Kind]Entry
}

// New builds a DataSet from entries; a later entry of the same kind replaces an earlier one.
func New(entries ...Entry) *DataSet {
	ds := &DataSet{entries: make(map[Kind]Entry, len(entries))}
	for _, e := range entries {
		ds.Put(e)
	}
	return ds
}

// Put stores e under its kind.
func (d *DataSet) Put(e Entry) {
	if d.entries == nil {
		d.entries = make(map[Kind]Entry)
	}
	d.entries[e.Kind()] = e
}

// RV returns the radial-velocity payload for component kind k.
func (d *DataSet) RV(k Kind) (RVPayload, bool) {
	if d == nil {
		return RVPayload{}, false
	}
	p, ok := d.entries[k].(RVPayload)
	return p, ok
}

// Astrometry returns the AS payload if present.
func (d *DataSet) Astrometry() (ASPayload, bool) {
	if d == nil {
		return ASPayload{}, false
	}
	p, ok := d.entries[KindAS].(ASPayload)
	return p, ok
}

// Kinds returns the present kinds in rendering order.
func (d *DataSet) Kinds() []Kind {
	if d == nil {
		return nil
	}
	kinds := make([]Kind, 0, len(d.entries))
	for k := range d.entries {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Validate checks every present payload.
func (d *DataSet) Validate() error {
	for _, k := range d.Kinds() {
		if err := d.entries[k].Validate(); err != nil {
			return err
		}
	}
	return nil
}
