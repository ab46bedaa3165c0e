// Package chained layers stores for read-through access: a fast volatile
// overlay (memory) in front of the durable device store. A hit in a deeper
// layer warms every layer above it so repeated directory reads from the UI
// loop never touch disk.
package chained

import (
	"context"
	"errors"
	"time"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/store"
)

// Chained is an ordered set of stores, fastest first.
type Chained struct {
	layers  []store.Store
	warmTTL time.Duration
}

// New creates a chained store. Layers are ordered fastest to slowest.
func New(layers ...store.Store) (*Chained, error) {
	if len(layers) == 0 {
		return nil, errors.New("chained: at least one layer required")
	}
	return &Chained{
		layers:  layers,
		warmTTL: time.Hour,
	}, nil
}

// Get traverses layers in order until a hit, then warms the layers above
// the hit. Layer failures other than "not found" are skipped, not fatal;
// the durable layer remains authoritative.
func (c *Chained) Get(ctx context.Context, key string) ([]byte, error) {
	var lastErr error

	for i, layer := range c.layers {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		value, err := layer.Get(ctx, key)
		if err != nil {
			lastErr = err
			continue
		}

		for j := i - 1; j >= 0; j-- {
			// Warm-up failures are non-fatal; the next read falls
			// through again.
			_ = c.layers[j].Set(ctx, key, value, c.warmTTL)
		}

		return value, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, store.ErrKeyNotFound
}

// Set writes to all layers. The first durable-layer error is returned but
// remaining layers are still attempted.
func (c *Chained) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var firstErr error

	for _, layer := range c.layers {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := layer.Set(ctx, key, value, ttl); err != nil && firstErr == nil {
			firstErr = store.WrapError(err, layer.Name(), "set")
		}
	}

	return firstErr
}

// Delete removes the key from all layers.
func (c *Chained) Delete(ctx context.Context, key string) error {
	var firstErr error

	for _, layer := range c.layers {
		if err := layer.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = store.WrapError(err, layer.Name(), "delete")
		}
	}

	return firstErr
}

// Name returns the chain identifier.
func (c *Chained) Name() string {
	return "chained"
}

// Close closes all layers, returning the first error encountered.
func (c *Chained) Close() error {
	var firstErr error
	for _, layer := range c.layers {
		if err := layer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Len returns the number of layers.
func (c *Chained) Len() int {
	return len(c.layers)
}
