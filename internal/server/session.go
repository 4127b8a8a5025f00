// Package server tracks the sessions behind every open connection via the
// Registry type, the single source of truth for who is in the room.
package server

import (
	"fmt"
	"strings"
	"time"
)

// Session is the server-side record for one open client connection. ID,
// RemoteAddress, and ConnectedAt are fixed at connect time; Username changes
// only through explicit update events and LastSeen through chat messages.
type Session struct {
	ID            string
	Username      string
	RemoteAddress string
	ConnectedAt   time.Time
	LastSeen      time.Time
}

// DefaultUsername derives the placeholder display name for a connection id.
func DefaultUsername(id string) string {
	short := id
	if len(short) > 6 {
		short = short[:6]
	}
	return "User_" + short
}

// Registry maps connection ids to sessions and remembers insertion order so
// roster snapshots are deterministic. It is owned by the hub and must only be
// touched from the hub's event loop, so it carries no locking of its own.
type Registry struct {
	sessions map[string]*Session
	order    []string
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// UpsertOnConnect inserts a new session for the given connection id with a
// derived default username. It fails if the id is already registered, which
// the transport's unique id assignment should make impossible.
func (r *Registry) UpsertOnConnect(id, remoteAddr string) (*Session, error) {
	if _, ok := r.sessions[id]; ok {
		return nil, fmt.Errorf("session %q already registered", id)
	}

	now := time.Now()
	s := &Session{
		ID:            id,
		Username:      DefaultUsername(id),
		RemoteAddress: remoteAddr,
		ConnectedAt:   now,
		LastSeen:      now,
	}
	r.sessions[id] = s
	r.order = append(r.order, id)
	return s, nil
}

// Get looks up a session by connection id. A missing id is a normal outcome,
// for example a message arriving after a disconnect race, not an error.
func (r *Registry) Get(id string) (*Session, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

// UpdateUsername trims the proposed name and applies it to the session. An
// empty result after trimming retains the existing username. Display names
// are not unique across sessions.
func (r *Registry) UpdateUsername(id, newName string) (*Session, bool) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	if trimmed := strings.TrimSpace(newName); trimmed != "" {
		s.Username = trimmed
	}
	return s, true
}

// TouchLastSeen stamps the session's last activity time. No-op if absent.
func (r *Registry) TouchLastSeen(id string) {
	if s, ok := r.sessions[id]; ok {
		s.LastSeen = time.Now()
	}
}

// Remove deletes the session and returns the removed record for use in the
// departure broadcast. Removing an absent id is a no-op.
func (r *Registry) Remove(id string) (*Session, bool) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	delete(r.sessions, id)
	for i, key := range r.order {
		if key == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return s, true
}

// Count reports the number of registered sessions.
func (r *Registry) Count() int {
	return len(r.sessions)
}

// Snapshot returns the registered sessions in insertion order.
func (r *Registry) Snapshot() []*Session {
	out := make([]*Session, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sessions[id])
	}
	return out
}
