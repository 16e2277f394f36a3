// Package yamldata reads orbital element files written in YAML.
package yamldata

import (
	"gopkg.in/yaml.v3"

	"orbitviz/domain/orbit"
	"orbitviz/internal/errors"
)

// ParseParams decodes a flat YAML mapping of orbital elements, for example
//
//	e: 0.3
//	omega: 120
//
// with the same defaults as the JSON form.
func ParseParams(body []byte) (orbit.Params, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(body, &doc); err != nil {
		return orbit.Params{}, errors.WithCode(errors.CodeConfigInvalid, errors.Wrap(err, "parameter document is not valid YAML"))
	}

	var probe orbit.Params
	values := make(map[string]float64, len(doc))
	for name, raw := range doc {
		var v float64
		switch n := raw.(type) {
		case int:
			v = float64(n)
		case float64:
			v = n
		default:
			if _, known := probe.Get(name); known {
				return orbit.Params{}, errors.ConfigInvalidf("orbital element %q is not a number", name)
			}
			continue
		}
		values[name] = v
	}
	return orbit.ParamsFromMap(values)
}
