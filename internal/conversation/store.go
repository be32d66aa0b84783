package conversation

import "sync"

// Store keeps per-session message histories. Unknown sessions read as empty.
// Put replaces the stored history wholesale; the agent returns the full
// post-turn history, so replacement is always a continuation of the old one.
type Store interface {
	Get(sessionID string) []Message
	Put(sessionID string, history []Message)
}

// MemoryStore is an in-memory Store. It has no size bound or expiry;
// production deployments need eviction backed by external storage.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Message
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]Message)}
}

// Get returns the stored history, or nil for an unknown session.
func (s *MemoryStore) Get(sessionID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.sessions[sessionID]
	out := make([]Message, len(history))
	copy(out, history)
	return out
}

// Put replaces the history for a session.
func (s *MemoryStore) Put(sessionID string, history []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]Message, len(history))
	copy(stored, history)
	s.sessions[sessionID] = stored
}
