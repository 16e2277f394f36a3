package diagnostics

import (
	"encoding/json"
	"fmt"

	"orbitviz/internal/errors"
)

// Point is a plot-plane coordinate pair.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) finite() bool { return isFinite(p.X) && isFinite(p.Y) }

// MarshalJSON writes non-finite coordinates as null.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}{finiteOrNil(p.X), finiteOrNil(p.Y)})
}

func finiteOrNil(v float64) *float64 {
	if !isFinite(v) {
		return nil
	}
	return &v
}

// Curve is an ordered point sequence. Points whose model evaluation was not
// finite are kept in place and listed in Gaps so renderers break the line there.
type Curve struct {
	Label  string  `json:"label"`
	Points []Point `json:"points"`
	Gaps   []int   `json:"gaps,omitempty"`
}

func newCurve(label string, points []Point) Curve {
	c := Curve{Label: label, Points: points}
	for i, p := range points {
		if !p.finite() {
			c.Gaps = append(c.Gaps, i)
		}
	}
	return c
}

// Err reports the gaps of c as a domain computation error, or nil.
func (c Curve) Err() error {
	if len(c.Gaps) == 0 {
		return nil
	}
	return errors.DomainComputation(fmt.Sprintf("%s: %d of %d samples are not finite (first at index %d)",
		c.Label, len(c.Gaps), len(c.Points), c.Gaps[0]))
}

// Segments splits c at its gaps into runs of finite points.
func (c Curve) Segments() [][]Point {
	var segs [][]Point
	start := 0
	for _, g := range append(append([]int(nil), c.Gaps...), len(c.Points)) {
		if g > start {
			segs = append(segs, c.Points[start:g])
		}
		start = g + 1
	}
	return segs
}
