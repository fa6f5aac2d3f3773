package capture

import "sync"

// Registry indexes the live session behind each in-flight scan so other
// request paths can see whether a scan is still moving through the pipeline.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*Session{}}
}

// Add registers the session for a scan.
func (r *Registry) Add(scanID string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[scanID] = s
}

// Remove drops the session for a scan.
func (r *Registry) Remove(scanID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, scanID)
}

// Lookup returns the live session for a scan, if any.
func (r *Registry) Lookup(scanID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[scanID]
	return s, ok
}

// Busy reports whether the scan has a live session with work in flight.
func (r *Registry) Busy(scanID string) bool {
	s, ok := r.Lookup(scanID)
	return ok && s.Busy()
}
