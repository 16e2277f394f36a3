package dataset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbitviz/internal/errors"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		parsed, ok := ParseKind(k.String())
		require.True(t, ok)
		assert.Equal(t, k, parsed)
	}
	_, ok := ParseKind("VIS")
	assert.False(t, ok)
}

func TestKindText(t *testing.T) {
	b, err := json.Marshal([]Kind{KindRV1, KindAS})
	require.NoError(t, err)
	assert.JSONEq(t, `["RV1","AS"]`, string(b))

	var kinds []Kind
	require.NoError(t, json.Unmarshal([]byte(`["RV2"]`), &kinds))
	assert.Equal(t, []Kind{KindRV2}, kinds)

	assert.Error(t, json.Unmarshal([]byte(`["VIS"]`), &kinds))
	_, err = json.Marshal(Kind(0))
	assert.Error(t, err)
}

func TestDataSetAccessors(t *testing.T) {
	ds := New(
		ASPayload{Easts: []float64{1}, Norths: []float64{2}, Majors: []float64{0.1}, Minors: []float64{0.05}, PAs: []float64{10}},
		RVPayload{Component: KindRV2, Phases: []float64{0.5}, RV: []float64{-10}, Err: []float64{1}},
	)

	_, ok := ds.RV(KindRV1)
	assert.False(t, ok)

	rv2, ok := ds.RV(KindRV2)
	require.True(t, ok)
	assert.Equal(t, 1, rv2.Len())

	as, ok := ds.Astrometry()
	require.True(t, ok)
	assert.Equal(t, 1, as.Len())

	assert.Equal(t, []Kind{KindRV2, KindAS}, ds.Kinds())
	assert.NoError(t, ds.Validate())
}

func TestRVAccessorDoesNotReturnAstrometry(t *testing.T) {
	ds := New(ASPayload{})
	_, ok := ds.RV(KindAS)
	assert.False(t, ok)
}

func TestNilDataSet(t *testing.T) {
	var ds *DataSet
	_, ok := ds.Astrometry()
	assert.False(t, ok)
	assert.Empty(t, ds.Kinds())
	assert.NoError(t, ds.Validate())
}

func TestValidateLengthMismatch(t *testing.T) {
	ds := New(RVPayload{Component: KindRV1, Phases: []float64{0.1, 0.2}, RV: []float64{1}, Err: []float64{1, 1}})
	err := ds.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))

	as := ASPayload{Easts: []float64{1, 2}, Norths: []float64{1, 2}, Majors: []float64{1, 2}, Minors: []float64{1}, PAs: []float64{1, 2}}
	assert.True(t, errors.IsConfigurationError(as.Validate()))
}

func TestRVPayloadRequiresComponentTag(t *testing.T) {
	err := RVPayload{}.Validate()
	assert.True(t, errors.IsConfigurationError(err))
}

func TestPutReplacesSameKind(t *testing.T) {
	var ds DataSet
	ds.Put(RVPayload{Component: KindRV1, Phases: []float64{0.1}, RV: []float64{1}, Err: []float64{1}})
	ds.Put(RVPayload{Component: KindRV1, Phases: []float64{0.2, 0.3}, RV: []float64{1, 2}, Err: []float64{1, 1}})
	rv1, ok := ds.RV(KindRV1)
	require.True(t, ok)
	assert.Equal(t, 2, rv1.Len())
}
