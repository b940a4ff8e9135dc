package session

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the active sessions by ID
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	newFn    func(id string) *Session
}

// NewRegistry creates a registry building sessions with newFn
func NewRegistry(newFn func(id string) *Session) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		newFn:    newFn,
	}
}

// Open creates and registers a session. It fails if id is in use.
func (r *Registry) Open(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; ok {
		return nil, fmt.Errorf("session %q already open", id)
	}
	s := r.newFn(id)
	r.sessions[id] = s
	return s, nil
}

// Get returns the session with the given ID
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Close closes and removes a session. Unknown IDs are ignored.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.Close()
	}
}

// CloseAll closes every session
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// List returns the sessions ordered by ID
func (r *Registry) List() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Stats summarizes the registry for monitoring
type Stats struct {
	Sessions int
	Playing  int
	Dropped  int
}

// Stats samples every session
func (r *Registry) Stats() Stats {
	var st Stats
	for _, s := range r.List() {
		st.Sessions++
		if s.State().IsPlaying {
			st.Playing++
		}
		st.Dropped += s.Dropped()
	}
	return st
}
