// Package diagnostics turns an orbital model and observational data into
// plot-ready primitives: sampled RV curves, the projected relative orbit,
// phase-folded RV data, astrometric uncertainty ellipses with axis limits,
// live position markers and corner-diagram requests.
//
// Everything here is a pure computation except MarkerRegistry, which owns
// the only mutable state. Nothing in this package draws; a renderer
// consumes the primitives.
package diagnostics
