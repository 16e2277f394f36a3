package fit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"orbitviz/internal/errors"
)

func TestFreeNames(t *testing.T) {
	r := &Result{
		Names: []string{"e", "i", "omega"},
		Params: map[string]Parameter{
			"e":     {Value: 0.3, Vary: true},
			"i":     {Value: 60, Vary: false},
			"omega": {Value: 120, Vary: true},
		},
	}
	assert.Equal(t, []string{"e", "omega"}, r.FreeNames())
	assert.NoError(t, r.Validate())
}

func TestValidate(t *testing.T) {
	empty := &Result{}
	assert.True(t, errors.IsConfigurationError(empty.Validate()))

	missing := &Result{Names: []string{"e"}, Params: map[string]Parameter{}}
	assert.True(t, errors.IsConfigurationError(missing.Validate()))

	dup := &Result{Names: []string{"e", "e"}, Params: map[string]Parameter{"e": {}}}
	assert.True(t, errors.IsConfigurationError(dup.Validate()))
}
