// internal/session/store.go
package session

import "sync"

// Keys persisted for the lifetime of a client session.
const (
	KeyDraftMode = "draftMode"
	KeyRole      = "role"
)

// Store is the ephemeral client-local key-value store. Controllers
// receive it at construction and read their keys exactly once.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// MemoryStore is the in-process Store implementation. Contents live
// and die with the console process, matching session-scoped storage.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
	}
}

// Get returns the stored value for key.
func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	return value, ok
}

// Set stores value under key, replacing any previous value.
func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
}

// Delete removes key from the store.
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
}
