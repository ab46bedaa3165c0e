package store

import (
	"errors"
	"fmt"
)

// Standard errors returned by store implementations.
var (
	// ErrKeyNotFound is returned when a requested key does not exist.
	ErrKeyNotFound = errors.New("store: key not found")

	// ErrInvalidKey is returned when a key is empty, too long, or contains
	// control characters.
	ErrInvalidKey = errors.New("store: invalid key")

	// ErrUnavailable is returned when a store backend is temporarily
	// unreachable.
	ErrUnavailable = errors.New("store: unavailable")

	// ErrClosed is returned when an operation is attempted on a closed store.
	ErrClosed = errors.New("store: closed")
)

// IsNotFound checks if the given error indicates that a key was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

// IsUnavailable checks if the given error indicates the backend is down.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// WrapError adds store and operation context to an error.
func WrapError(err error, name string, operation string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("store %s %s: %w", name, operation, err)
}
