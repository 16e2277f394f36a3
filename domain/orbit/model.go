// Package orbit defines the read-only orbital model consumed by the
// diagnostics core, plus a Keplerian reference implementation.
package orbit

// Component is one star of the binary as seen spectroscopically.
type Component interface {
	// RadialVelocity returns the radial velocity (km/s) at an orbital phase.
	RadialVelocity(phase float64) float64
	// RadialVelocities is the vectorized form of RadialVelocity.
	RadialVelocities(phases []float64) []float64
}

// RelativeOrbit is the secondary's apparent orbit around the primary,
// projected on the sky in (east, north) coordinates.
type RelativeOrbit interface {
	EastOfEcc(eccAnomaly float64) float64
	NorthOfEcc(eccAnomaly float64) float64
	EastOfTrue(trueAnomaly float64) float64
	NorthOfTrue(trueAnomaly float64) float64
	EastOfPhase(phase float64) float64
	NorthOfPhase(phase float64) float64
	// ArgumentOfPeriastron is the relative orbit's omega, in radians.
	ArgumentOfPeriastron() float64
}

// Model is a fitted or trial binary system.
type Model interface {
	Primary() Component
	Secondary() Component
	Relative() RelativeOrbit
}
