// internal/blob/store_test.go
package blob

import "testing"

func TestAcquireAndOpen(t *testing.T) {
	store := NewStore()

	h := store.Acquire([]byte("content"), "application/pdf")
	if h.Address() == "" {
		t.Fatal("live handle must have an address")
	}

	data, contentType, ok := store.Open(h.ID())
	if !ok {
		t.Fatal("Open failed for live handle")
	}
	if string(data) != "content" {
		t.Errorf("data = %q, want %q", data, "content")
	}
	if contentType != "application/pdf" {
		t.Errorf("contentType = %q", contentType)
	}
	if store.LiveCount() != 1 {
		t.Errorf("LiveCount = %d, want 1", store.LiveCount())
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	store := NewStore()
	h := store.Acquire([]byte("x"), "application/pdf")

	store.Release(h)
	store.Release(h) // second release is a no-op
	store.Release(nil)

	if store.LiveCount() != 0 {
		t.Errorf("LiveCount = %d, want 0", store.LiveCount())
	}
	if !h.Released() {
		t.Error("handle should report released")
	}
}

func TestOpenAfterReleaseFails(t *testing.T) {
	store := NewStore()
	h := store.Acquire([]byte("x"), "application/pdf")
	id := h.ID()

	store.Release(h)

	if _, _, ok := store.Open(id); ok {
		t.Error("Open must fail for a released handle")
	}
	if h.Address() != "" {
		t.Errorf("Address after release = %q, want empty", h.Address())
	}
}

func TestHandlesAreIndependent(t *testing.T) {
	store := NewStore()
	a := store.Acquire([]byte("a"), "application/pdf")
	b := store.Acquire([]byte("b"), "application/pdf")

	store.Release(a)

	if _, _, ok := store.Open(b.ID()); !ok {
		t.Error("releasing one handle must not affect another")
	}
	if store.LiveCount() != 1 {
		t.Errorf("LiveCount = %d, want 1", store.LiveCount())
	}
}
