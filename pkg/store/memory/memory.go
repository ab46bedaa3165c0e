package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/store"
)

// MemoryStore is a thread-safe in-memory store with TTL expiration.
// It backs tests and serves as the fast overlay in a chained store.
type MemoryStore struct {
	data map[string]*entry
	mu   sync.RWMutex

	config MemoryStoreConfig

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	wg            sync.WaitGroup
}

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// MemoryStoreConfig holds configuration for the memory store.
type MemoryStoreConfig struct {
	// Name is the store identifier
	Name string

	// CleanupInterval is how often to sweep expired entries
	CleanupInterval time.Duration
}

// NewMemoryStore creates a new in-memory store and starts the TTL sweeper.
func NewMemoryStore(config MemoryStoreConfig) *MemoryStore {
	if config.Name == "" {
		config.Name = "memory"
	}
	if config.CleanupInterval == 0 {
		config.CleanupInterval = time.Minute
	}

	s := &MemoryStore{
		data:          make(map[string]*entry),
		config:        config,
		stopCleanup:   make(chan struct{}),
		cleanupTicker: time.NewTicker(config.CleanupInterval),
	}

	s.wg.Add(1)
	go s.cleanup()

	return s
}

// Get retrieves a value by key.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := store.ValidateKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	e, exists := s.data[key]
	s.mu.RUnlock()

	if !exists {
		return nil, store.ErrKeyNotFound
	}

	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.data, key)
		s.mu.Unlock()
		return nil, store.ErrKeyNotFound
	}

	// Copy so callers cannot mutate the stored slice.
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores a value under key. ttl of 0 means no expiry.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.data[key] = &entry{value: stored, expiresAt: expiresAt}
	s.mu.Unlock()

	return nil
}

// Delete removes a key. Absent keys are not an error.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()

	return nil
}

// Keys returns all live keys. Implements store.Keyer.
func (s *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	keys := make([]string, 0, len(s.data))
	for k, e := range s.data {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			continue
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Name returns the store identifier.
func (s *MemoryStore) Name() string {
	return s.config.Name
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() error {
	close(s.stopCleanup)
	s.cleanupTicker.Stop()
	s.wg.Wait()
	return nil
}

// Len returns the number of entries, including not-yet-swept expired ones.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) cleanup() {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCleanup:
			return
		case <-s.cleanupTicker.C:
			now := time.Now()
			s.mu.Lock()
			for k, e := range s.data {
				if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
					delete(s.data, k)
				}
			}
			s.mu.Unlock()
		}
	}
}
