// Package kv provides a key-value store abstraction for job-id guards and
// submission records. The in-memory backend serves a single process; the
// Valkey/Redis backend shares state between submitting hosts.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get for a missing or expired key.
var ErrNotFound = errors.New("kv: no such key")

// Store is the subset of Redis semantics pbsub needs: plain values, an atomic
// set-if-absent for locks, and per-key expiry.
type Store interface {
	// Set stores value under key. A zero ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value by key. Returns ErrNotFound if key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key. Returns nil if key doesn't exist.
	Delete(ctx context.Context, key string) error

	// SetNX stores value only when key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// DeleteIfEquals removes key only while it still holds value and reports
	// whether it did. Lock holders use it to release only their own lock.
	DeleteIfEquals(ctx context.Context, key string, value []byte) (bool, error)

	Close() error
}
