// internal/blob/store.go
package blob

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
)

// Store owns revocable handles over in-memory binary artifacts. A
// handle makes a fetched document addressable for the UI until it is
// released; release is idempotent and frees the underlying bytes.
// The store carries no network or business logic.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	data        []byte
	contentType string
}

// Handle is an exclusive, revocable reference to one stored artifact.
type Handle struct {
	store    *Store
	id       string
	released bool // guarded by store.mu
}

// NewStore creates an empty blob store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*entry),
	}
}

// Acquire registers data under a fresh handle. The caller owns the
// handle and is responsible for exactly-once release.
func (s *Store) Acquire(data []byte, contentType string) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := newID()
	s.entries[id] = &entry{
		data:        data,
		contentType: contentType,
	}

	return &Handle{store: s, id: id}
}

// Release invalidates the handle's address and frees its bytes.
// Releasing twice is a no-op; a nil handle is tolerated so callers can
// release unconditionally.
func (s *Store) Release(h *Handle) {
	if h == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if h.released {
		return
	}

	h.released = true
	delete(s.entries, h.id)
}

// Open resolves an address id to its bytes and content type. Returns
// false for unknown or released ids; a stale address held by the UI
// must fail to load rather than serve freed content.
func (s *Store) Open(id string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, "", false
	}
	return e.data, e.contentType, true
}

// LiveCount reports the number of unreleased handles.
func (s *Store) LiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// ID returns the handle's opaque identifier.
func (h *Handle) ID() string {
	return h.id
}

// Address returns the loadable address for the artifact, or "" once
// the handle has been released.
func (h *Handle) Address() string {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	if h.released {
		return ""
	}
	return "/blob/" + h.id
}

// Released reports whether the handle has been revoked.
func (h *Handle) Released() bool {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	return h.released
}

func newID() string {
	buf := make([]byte, 8)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
