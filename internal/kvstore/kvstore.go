// Package kvstore provides a shared key-value store with per-entry TTL.
//
// It replaces ambient process-wide caching: components that need short-lived
// shared state (impression dedupe markers, analytics snapshots) receive a
// Store instance explicitly instead of reaching for a global. The Redis
// implementation is shared across service instances; the memory
// implementation backs tests and single-node development.
package kvstore

import (
	"context"
	"time"
)

// Store is a key-value store with per-entry expiry.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key and whether it exists (and is unexpired).
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key with the given TTL. A non-positive TTL
	// stores the entry without expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetNX stores value under key only if the key is absent. Returns true
	// if the value was stored. This is the primitive behind dedupe windows.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
