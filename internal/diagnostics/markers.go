package diagnostics

import (
	"fmt"
	"sync"

	"orbitviz/domain/orbit"
	"orbitviz/internal/errors"
)

// MarkerSlot identifies one of the three live markers.
type MarkerSlot int

const (
	SlotRV1 MarkerSlot = iota
	SlotRV2
	SlotSky
	numSlots
)

func (s MarkerSlot) String() string {
	switch s {
	case SlotRV1:
		return "rv1"
	case SlotRV2:
		return "rv2"
	case SlotSky:
		return "sky"
	}
	return fmt.Sprintf("slot(%d)", int(s))
}

// Artist is a visual element owned by a renderer that can be moved in place.
type Artist interface {
	SetData(x, y float64)
}

// ArtistFactory creates the visual element for a slot the first time it is placed.
type ArtistFactory interface {
	NewMarker(slot MarkerSlot, x, y float64) Artist
}

// HandleState is Unbound until the marker is first drawn, Bound afterwards.
type HandleState int

const (
	Unbound HandleState = iota
	Bound
)

func (s HandleState) String() string {
	if s == Bound {
		return "bound"
	}
	return "unbound"
}

// MarkerHandle ties a slot to its visual element, once one exists.
type MarkerHandle struct {
	state  HandleState
	artist Artist
}

func (h MarkerHandle) State() HandleState { return h.state }

// Artist returns the bound element; ok is false while Unbound.
func (h MarkerHandle) Artist() (a Artist, ok bool) {
	return h.artist, h.state == Bound
}

// place creates the artist on Unbound->Bound and repositions it on Bound->Bound.
func (h MarkerHandle) place(slot MarkerSlot, at Point, f ArtistFactory) MarkerHandle {
	if h.state == Bound {
		h.artist.SetData(at.X, at.Y)
		return h
	}
	return MarkerHandle{state: Bound, artist: f.NewMarker(slot, at.X, at.Y)}
}

// MarkerSet is the fixed triple of handles, indexed by MarkerSlot.
type MarkerSet [numSlots]MarkerHandle

// MarkerPositions are the marker coordinates for one phase. RV markers are
// (phase, rv); the sky marker is (east, north).
type MarkerPositions struct {
	Phase float64 `json:"phase"`
	RV1   Point   `json:"rv1"`
	RV2   Point   `json:"rv2"`
	Sky   Point   `json:"sky"`
}

func (p MarkerPositions) at(slot MarkerSlot) Point {
	switch slot {
	case SlotRV1:
		return p.RV1
	case SlotRV2:
		return p.RV2
	default:
		return p.Sky
	}
}

// ComputeMarkers evaluates the model for all three markers at phase.
// Phases outside [0, 1) are handed to the model unchanged.
func ComputeMarkers(m orbit.Model, phase float64) (MarkerPositions, error) {
	pos := MarkerPositions{
		Phase: phase,
		RV1:   Point{X: phase, Y: m.Primary().RadialVelocity(phase)},
		RV2:   Point{X: phase, Y: m.Secondary().RadialVelocity(phase)},
		Sky:   Point{X: m.Relative().EastOfPhase(phase), Y: m.Relative().NorthOfPhase(phase)},
	}
	for slot := SlotRV1; slot < numSlots; slot++ {
		if !pos.at(slot).finite() {
			return MarkerPositions{}, errors.DomainComputation(
				fmt.Sprintf("%s marker is not finite at phase %v", slot, phase))
		}
	}
	return pos, nil
}

// UpdateMarkers moves every handle of set to its position at phase and
// returns the updated set. All positions are computed before any handle is
// touched, so a failure leaves set as it was.
func UpdateMarkers(set MarkerSet, phase float64, m orbit.Model, f ArtistFactory) (MarkerSet, MarkerPositions, error) {
	pos, err := ComputeMarkers(m, phase)
	if err != nil {
		return set, MarkerPositions{}, err
	}
	for slot := SlotRV1; slot < numSlots; slot++ {
		set[slot] = set[slot].place(slot, pos.at(slot), f)
	}
	return set, pos, nil
}

// MarkerRegistry owns the marker triple of one interactive session.
// Updates are serialized so all three markers always show the same phase.
type MarkerRegistry struct {
	mu      sync.Mutex
	factory ArtistFactory
	handles MarkerSet
	last    MarkerPositions
	placed  bool
}

func NewMarkerRegistry(f ArtistFactory) *MarkerRegistry {
	return &MarkerRegistry{factory: f}
}

// Update repositions the markers for phase.
func (r *MarkerRegistry) Update(m orbit.Model, phase float64) (MarkerPositions, error) {
	return r.UpdateThen(m, phase, nil)
}

// UpdateThen repositions the markers and, on success, calls applied with
// the new positions before the next update may start. Callers fanning the
// positions out keep them in update order this way.
func (r *MarkerRegistry) UpdateThen(m orbit.Model, phase float64, applied func(MarkerPositions)) (MarkerPositions, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	handles, pos, err := UpdateMarkers(r.handles, phase, m, r.factory)
	if err != nil {
		return MarkerPositions{}, err
	}
	r.handles = handles
	r.last = pos
	r.placed = true
	if applied != nil {
		applied(pos)
	}
	return pos, nil
}

// Handle returns the current handle of slot.
func (r *MarkerRegistry) Handle(slot MarkerSlot) MarkerHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handles[slot]
}

// Positions returns the last applied positions; ok is false before the first update.
func (r *MarkerRegistry) Positions() (MarkerPositions, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.placed
}
