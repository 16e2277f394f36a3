package diagnostics

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointJSON(t *testing.T) {
	b, err := json.Marshal([]Point{{X: 0.5, Y: -2}, {X: 0.6, Y: math.NaN()}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"x":0.5,"y":-2},{"x":0.6,"y":null}]`, string(b))
}

func TestCurveSegments(t *testing.T) {
	nan := math.NaN()
	c := newCurve("c", []Point{{0, nan}, {1, 1}, {2, 2}, {3, nan}, {4, nan}, {5, 5}})
	assert.Equal(t, []int{0, 3, 4}, c.Gaps)
	assert.Equal(t, [][]Point{{{1, 1}, {2, 2}}, {{5, 5}}}, c.Segments())
	assert.Error(t, c.Err())

	clean := newCurve("c", []Point{{0, 0}, {1, 1}})
	assert.NoError(t, clean.Err())
	assert.Len(t, clean.Segments(), 1)
}
