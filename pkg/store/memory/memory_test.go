package memory

import (
	"context"
	"testing"
	"time"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/store"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore(MemoryStoreConfig{CleanupInterval: 10 * time.Millisecond})
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMemoryStore_SetGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "k1", []byte("v1"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(value) != "v1" {
		t.Errorf("Get = %q, want %q", value, "v1")
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "absent")
	if !store.IsNotFound(err) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "short", []byte("v"), 20*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}

	time.Sleep(40 * time.Millisecond)

	if _, err := s.Get(ctx, "short"); !store.IsNotFound(err) {
		t.Errorf("expected expiry, got %v", err)
	}
	if _, err := s.Get(ctx, "forever"); err != nil {
		t.Errorf("zero TTL must never expire, got %v", err)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Set(ctx, "k", []byte("v"), 0)

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !store.IsNotFound(err) {
		t.Errorf("expected not found after delete, got %v", err)
	}

	// Deleting an absent key is not an error.
	if err := s.Delete(ctx, "k"); err != nil {
		t.Errorf("double delete errored: %v", err)
	}
}

func TestMemoryStore_InvalidKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tests := []string{"", " padded ", "ctrl\x00char"}
	for _, key := range tests {
		if _, err := s.Get(ctx, key); err == nil {
			t.Errorf("Get(%q) accepted invalid key", key)
		}
		if err := s.Set(ctx, key, []byte("v"), 0); err == nil {
			t.Errorf("Set(%q) accepted invalid key", key)
		}
	}
}

func TestMemoryStore_ValueIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	original := []byte("value")
	s.Set(ctx, "k", original, 0)
	original[0] = 'X'

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "value" {
		t.Errorf("stored value mutated through caller slice: %q", got)
	}

	got[0] = 'Y'
	again, _ := s.Get(ctx, "k")
	if string(again) != "value" {
		t.Errorf("stored value mutated through returned slice: %q", again)
	}
}

func TestMemoryStore_Keys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Set(ctx, "a", []byte("1"), 0)
	s.Set(ctx, "b", []byte("2"), 0)

	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 {
		t.Errorf("Keys() returned %d entries, want 2", len(keys))
	}
}
