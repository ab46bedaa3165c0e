package store

import (
	"context"
	"time"
)

// Store is the key-value persistence contract used for the device-scoped
// session state: the fingerprint, the cached account directory, and the
// last-chosen account. Implementations range from the on-device file store
// to redis/postgres mirrors for hosted deployments.
type Store interface {
	// Get retrieves a value by key.
	// Returns ErrKeyNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value under key. A ttl of 0 means the entry never
	// expires; stores without expiry semantics ignore ttl entirely.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Name returns the identifier for this store (e.g., "memory", "file").
	// Used for logging and metrics.
	Name() string

	// Close releases any resources held by the store.
	Close() error
}

// Keyer is implemented by stores that can enumerate their keys.
// Used to seed derived structures (e.g., bloom filters) at startup.
type Keyer interface {
	Keys(ctx context.Context) ([]string, error)
}

// Well-known keys for the session state. Kept in one place so every
// backend shares the same schema.
const (
	KeyDeviceFingerprint = "device:fingerprint"
	KeyProfiles          = "directory:profiles"
	KeyLastAccount       = "directory:last_account"
)
