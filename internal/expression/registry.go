package expression

import (
	"errors"
	"sync"
)

// ErrSessionClosed is returned when an operation references a session
// that was never registered or has already been disconnected.
var ErrSessionClosed = errors.New("session closed")

// Registry tracks live sessions keyed by client id. It exists so session
// lifecycle is explicit: a session is created on connect, removed on
// disconnect, and never leaked. Removal is idempotent, and operations
// against a removed session fail with ErrSessionClosed instead of
// touching stale state — a frame racing a disconnect is dropped cleanly.
//
// The registry lock only guards the map. Each session is still owned by
// exactly one frame-processing loop at a time.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Connect registers a fresh session for the client id and returns it. A
// reconnect under the same id replaces the old session.
func (r *Registry) Connect(clientID string) *Session {
	s := NewSession()
	r.mu.Lock()
	r.sessions[clientID] = s
	r.mu.Unlock()
	return s
}

// Adopt registers an externally created session under the given id. The
// desktop pipeline uses this so its long-lived session receives binding
// pushes alongside browser clients.
func (r *Registry) Adopt(clientID string, s *Session) {
	r.mu.Lock()
	r.sessions[clientID] = s
	r.mu.Unlock()
}

// Get returns the session for the client id.
func (r *Registry) Get(clientID string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[clientID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionClosed
	}
	return s, nil
}

// Disconnect removes the client's session. Removing an unknown or
// already-removed id is a no-op.
func (r *Registry) Disconnect(clientID string) {
	r.mu.Lock()
	delete(r.sessions, clientID)
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Each calls fn for every live session. Used by the upload handler to
// push a new binding to connected clients. fn must not block on frame
// processing for the same session.
func (r *Registry) Each(fn func(clientID string, s *Session)) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		r.mu.RLock()
		s, ok := r.sessions[id]
		r.mu.RUnlock()
		if ok {
			fn(id, s)
		}
	}
}
