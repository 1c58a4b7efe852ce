// Package registry tracks the relay sessions of currently active calls so
// out-of-band control commands from the dashboard can reach them.
package registry

import (
	"io"
	"sync"
	"time"
)

// Session is the live state of one active call: the handles to both legs
// plus the timestamps needed to compute duration at teardown. It exists
// only between the provider's stream-start and the call's teardown.
type Session struct {
	CallSID   string
	StreamSID string
	Media     io.Closer // inbound media-stream connection
	Speech    io.Closer // outbound speech session client
	StartedAt time.Time
}

// Registry is a concurrent map from provider call id to the active relay
// session. At most one session exists per call id at any instant; removal
// is the only transition out of existence. The registry is injected into
// the relay and the control-command handler rather than held as a global,
// so tests can run isolated instances.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Set registers the session under its call id, replacing any previous entry.
func (r *Registry) Set(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.CallSID] = s
}

// Get returns the session for a call id, or false if the call is not active.
func (r *Registry) Get(callSID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[callSID]
	return s, ok
}

// Delete removes the session for a call id. Deleting a missing key is a no-op.
func (r *Registry) Delete(callSID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, callSID)
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
