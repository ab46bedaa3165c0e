// Package mock provides a Store test double with injectable behavior and
// atomic call counters.
package mock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/store"
)

// MockStore implements store.Store for tests. Unhooked methods act as a
// plain map-backed store so simple tests need no setup.
type MockStore struct {
	// Function hooks - set these to customize behavior
	GetFunc    func(ctx context.Context, key string) ([]byte, error)
	SetFunc    func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error

	name string

	mu   sync.Mutex
	data map[string][]byte

	getCalls    int64
	setCalls    int64
	deleteCalls int64
}

// NewMockStore creates a mock store with the given name.
func NewMockStore(name string) *MockStore {
	if name == "" {
		name = "mock"
	}
	return &MockStore{
		name: name,
		data: make(map[string][]byte),
	}
}

// Get implements store.Store.
func (m *MockStore) Get(ctx context.Context, key string) ([]byte, error) {
	atomic.AddInt64(&m.getCalls, 1)
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return nil, store.ErrKeyNotFound
	}
	return value, nil
}

// Set implements store.Store.
func (m *MockStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	atomic.AddInt64(&m.setCalls, 1)
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Delete implements store.Store.
func (m *MockStore) Delete(ctx context.Context, key string) error {
	atomic.AddInt64(&m.deleteCalls, 1)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys implements store.Keyer over the backing map.
func (m *MockStore) Keys(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

// Name implements store.Store.
func (m *MockStore) Name() string {
	return m.name
}

// Close implements store.Store.
func (m *MockStore) Close() error {
	return nil
}

// GetCalls returns the number of Get calls (thread-safe).
func (m *MockStore) GetCalls() int {
	return int(atomic.LoadInt64(&m.getCalls))
}

// SetCalls returns the number of Set calls (thread-safe).
func (m *MockStore) SetCalls() int {
	return int(atomic.LoadInt64(&m.setCalls))
}

// DeleteCalls returns the number of Delete calls (thread-safe).
func (m *MockStore) DeleteCalls() int {
	return int(atomic.LoadInt64(&m.deleteCalls))
}
