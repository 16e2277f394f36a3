package api

import (
	"sync"
	"time"

	"orbitviz/domain/core"
	"orbitviz/domain/orbit"
	"orbitviz/internal/diagnostics"
	"orbitviz/internal/errors"
)

// positionArtist is the server-side stand-in for a drawn marker: it only
// remembers where it was last put. The registry serializes SetData calls.
type positionArtist struct {
	slot diagnostics.MarkerSlot
	x, y float64
}

func (a *positionArtist) SetData(x, y float64) { a.x, a.y = x, y }

type positionFactory struct{}

func (positionFactory) NewMarker(slot diagnostics.MarkerSlot, x, y float64) diagnostics.Artist {
	return &positionArtist{slot: slot, x: x, y: y}
}

// session is one interactive scrubbing context: a model, its scene and
// the marker triple the client moves.
type session struct {
	ID        core.SessionID
	Params    orbit.Params
	Scene     *diagnostics.Scene
	Markers   *diagnostics.MarkerRegistry
	CreatedAt time.Time
}

func newSession(params orbit.Params, scene *diagnostics.Scene) *session {
	return &session{
		ID:        core.NewSessionID(),
		Params:    params,
		Scene:     scene,
		Markers:   diagnostics.NewMarkerRegistry(positionFactory{}),
		CreatedAt: time.Now(),
	}
}

// markerState reports each slot's handle state.
func (s *session) markerState() map[string]string {
	out := make(map[string]string, 3)
	for _, slot := range []diagnostics.MarkerSlot{diagnostics.SlotRV1, diagnostics.SlotRV2, diagnostics.SlotSky} {
		out[slot.String()] = s.Markers.Handle(slot).State().String()
	}
	return out
}

// sessionStore holds live sessions.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[core.SessionID]*session)}
}

func (st *sessionStore) put(s *session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

func (st *sessionStore) get(id core.SessionID) (*session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, errors.NotFound("session " + id.String())
	}
	return s, nil
}

// remove tears a session down; its marker registry goes with it.
func (st *sessionStore) remove(id core.SessionID) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return errors.NotFound("session " + id.String())
	}
	delete(st.sessions, id)
	return nil
}

func (st *sessionStore) len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
