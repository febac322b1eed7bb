package session

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultRecentSessions is the default capacity of the recently-closed
// summary cache.
const DefaultRecentSessions = 128

// ClosedSummary is the diagnostic record retained after a session closes.
type ClosedSummary struct {
	ID           string
	RemoteAddr   string
	BytesRead    uint64
	BytesWritten uint64
	Reason       string
}

// Registry tracks active sessions by identity. Thread-safe; it is mutated
// only on session creation and on the closed transition.
type Registry interface {
	// Register adds a session. Returns ErrDuplicateID if the identity is
	// already present.
	Register(s *Session) error

	// Unregister removes a session by identity, retaining a closed
	// summary. Returns ErrSessionNotFound if absent.
	Unregister(id string) error

	// Get returns a session by identity, or nil if not found.
	Get(id string) *Session

	// Has returns true if the identity is registered.
	Has(id string) bool

	// All returns all registered session identities.
	All() []string

	// Count returns the number of active sessions.
	Count() int

	// Recent returns summaries of recently closed sessions, oldest first.
	Recent() []ClosedSummary

	// Close terminates all registered sessions and clears the registry.
	Close() error
}

// RegistryImpl is the concrete Registry.
type RegistryImpl struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	recent   *lru.Cache[string, ClosedSummary]
}

// NewRegistry creates a session registry retaining up to recentSize closed
// summaries. A non-positive recentSize selects DefaultRecentSessions.
func NewRegistry(recentSize int) *RegistryImpl {
	if recentSize <= 0 {
		recentSize = DefaultRecentSessions
	}
	// lru.New only fails for a non-positive size, which is guarded above.
	recent, _ := lru.New[string, ClosedSummary](recentSize)
	return &RegistryImpl{
		sessions: make(map[string]*Session),
		recent:   recent,
	}
}

// Register adds a session to the registry.
func (r *RegistryImpl) Register(s *Session) error {
	if s == nil || s.ID() == "" {
		return ErrSessionNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.ID()]; exists {
		return ErrDuplicateID
	}
	r.sessions[s.ID()] = s
	return nil
}

// Unregister removes a session by identity and records its closed summary.
func (r *RegistryImpl) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.sessions[id]
	if !exists {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)

	summary := ClosedSummary{
		ID:           s.ID(),
		RemoteAddr:   s.RemoteAddr(),
		BytesRead:    s.BytesRead(),
		BytesWritten: s.BytesWritten(),
	}
	if reason := s.CloseReason(); reason != nil {
		summary.Reason = reason.Error()
	}
	r.recent.Add(id, summary)
	return nil
}

// Get returns a session by identity, or nil if not found.
func (r *RegistryImpl) Get(id string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

// Has returns true if a session with the given identity exists.
func (r *RegistryImpl) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.sessions[id]
	return exists
}

// All returns all registered session identities.
func (r *RegistryImpl) All() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of active sessions.
func (r *RegistryImpl) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Recent returns summaries of recently closed sessions, oldest first.
func (r *RegistryImpl) Recent() []ClosedSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.recent.Values()
}

// Close terminates all sessions and clears the registry. Sessions are
// collected first and the lock released before closing them, since close
// listeners typically call back into Unregister.
func (r *RegistryImpl) Close() error {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close(nil)
	}
	return nil
}
