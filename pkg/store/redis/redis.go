// Package redis implements a rueidis-backed store. It is used by hosted
// deployments that mirror device session state server-side; on-device
// builds use the file store instead.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/store"
	"github.com/redis/rueidis"
)

// RedisStore persists session keys in a single Redis node.
type RedisStore struct {
	client rueidis.Client
	name   string
	config Config
}

// Config holds Redis connection configuration.
type Config struct {
	Name         string
	Addr         string
	Username     string
	Password     string
	DB           int
	KeyPrefix    string
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns a single-node localhost configuration.
func DefaultConfig() Config {
	return Config{
		Name:         "redis",
		Addr:         "localhost:6379",
		KeyPrefix:    "session:",
		DialTimeout:  5 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// NewRedisStore connects, pings, and returns the store.
func NewRedisStore(config Config) (*RedisStore, error) {
	if config.Name == "" {
		config.Name = "redis"
	}
	if config.Addr == "" {
		return nil, fmt.Errorf("redis: no address configured")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:      []string{config.Addr},
		Username:         config.Username,
		Password:         config.Password,
		SelectDB:         config.DB,
		ConnWriteTimeout: config.WriteTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: failed to create client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.DialTimeout)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: failed to ping server: %w", err)
	}

	return &RedisStore{
		client: client,
		name:   config.Name,
		config: config,
	}, nil
}

// Get retrieves a value by key.
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := store.ValidateKey(key); err != nil {
		return nil, err
	}

	cmd := r.client.B().Get().Key(r.config.KeyPrefix + key).Build()
	resp := r.client.Do(ctx, cmd)

	if err := resp.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, store.ErrKeyNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	data, err := resp.AsBytes()
	if err != nil {
		return nil, fmt.Errorf("redis get: failed to read response: %w", err)
	}
	return data, nil
}

// Set stores a value under key. ttl of 0 persists without expiry.
func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	fullKey := r.config.KeyPrefix + key

	var cmd rueidis.Completed
	if ttl > 0 {
		cmd = r.client.B().Set().Key(fullKey).Value(string(value)).Ex(ttl).Build()
	} else {
		cmd = r.client.B().Set().Key(fullKey).Value(string(value)).Build()
	}

	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a key.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	cmd := r.client.B().Del().Key(r.config.KeyPrefix + key).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Name returns the store identifier.
func (r *RedisStore) Name() string {
	return r.name
}

// Close releases the client.
func (r *RedisStore) Close() error {
	r.client.Close()
	return nil
}
