package yamldata

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"orbitviz/domain/orbit"
	"orbitviz/internal/errors"
)

func TestParseParams(t *testing.T) {
	body := []byte(`
e: 0.3
i: 60
omega: 120
Omega: 40
t0: 58000.5
k1: 30
k2: 40
p: 100
gamma1: 5
d: 100
notes: primary is the brighter star
`)
	got, err := ParseParams(body)
	if err != nil {
		t.Fatalf("ParseParams: %v", err)
	}
	want := orbit.Params{
		E: 0.3, I: 60, Omega: 120, BigOmega: 40, T0: 58000.5,
		K1: 30, K2: 40, P: 100, Gamma1: 5, Gamma2: 5, D: 100,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestParseParamsRejectsNonNumeric(t *testing.T) {
	_, err := ParseParams([]byte("e: high\ni: 60\n"))
	if !errors.IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestParseParamsRejectsMalformed(t *testing.T) {
	_, err := ParseParams([]byte("e: [0.3\n"))
	if !errors.IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestParseParamsNaNFailsValidation(t *testing.T) {
	body := []byte("e: 0.3\ni: .nan\nomega: 1\nOmega: 1\nk1: 1\nk2: 1\np: 10\ngamma1: 0\nd: 1\n")
	p, err := ParseParams(body)
	if err != nil {
		t.Fatalf("ParseParams: %v", err)
	}
	if err := p.Validate(); !errors.IsConfigurationError(err) {
		t.Fatalf("expected configuration error for i: .nan, got %v", err)
	}
}
