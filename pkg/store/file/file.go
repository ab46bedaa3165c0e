// Package file implements the on-device store: a single JSON file holding
// the session key-value state. This is the Go rendering of the mobile
// platform's scoped secure storage; entries never expire, writes go through
// an atomic rename so a crash mid-write cannot corrupt the previous state.
package file

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/store"
)

// FileStore persists key-value pairs in a JSON file.
type FileStore struct {
	path string
	name string

	mu   sync.RWMutex
	data map[string]string // values base64-encoded for a stable file format
}

// Config holds file store configuration.
type Config struct {
	// Path is the backing file location. The parent directory is created
	// if missing.
	Path string

	// Name is the store identifier (default: "file").
	Name string
}

// NewFileStore opens (or creates) the backing file and loads its contents.
func NewFileStore(cfg Config) (*FileStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file store: path is required")
	}
	if cfg.Name == "" {
		cfg.Name = "file"
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
		return nil, fmt.Errorf("file store: create dir: %w", err)
	}

	s := &FileStore{
		path: cfg.Path,
		name: cfg.Name,
		data: make(map[string]string),
	}

	raw, err := os.ReadFile(cfg.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("file store: read: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, fmt.Errorf("file store: decode: %w", err)
		}
	}

	return s, nil
}

// Get retrieves a value by key.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := store.ValidateKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	encoded, ok := s.data[key]
	s.mu.RUnlock()

	if !ok {
		return nil, store.ErrKeyNotFound
	}

	value, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, store.WrapError(err, s.name, "decode")
	}
	return value, nil
}

// Set stores a value under key and flushes the file. TTL is ignored:
// device storage has no expiry semantics.
func (s *FileStore) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = base64.StdEncoding.EncodeToString(value)
	return s.flushLocked()
}

// Delete removes a key and flushes the file.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.flushLocked()
}

// Keys returns all stored keys. Implements store.Keyer.
func (s *FileStore) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

// Name returns the store identifier.
func (s *FileStore) Name() string {
	return s.name
}

// Close is a no-op; every write is already flushed.
func (s *FileStore) Close() error {
	return nil
}

// flushLocked writes the state to a temp file and renames it into place.
// Callers must hold s.mu.
func (s *FileStore) flushLocked() error {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return store.WrapError(err, s.name, "encode")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return store.WrapError(err, s.name, "write")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return store.WrapError(err, s.name, "rename")
	}
	return nil
}
