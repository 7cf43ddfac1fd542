// Package cache provides byte-level caching for controller catalog responses.
//
// Part images and part geometry change only when the controller's asset
// set changes, so the CLI keeps them between invocations. Layout and switch
// configuration are never cached: they are owned by the controller and read
// fresh at the start of every session.
//
// Backends:
//   - [FileCache]: JSON entries under ~/.cache/switchyard/
//   - [NullCache]: disables caching (--no-cache, tests)
//
// Keys come from a [Keyer] so that different controllers never share entries.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte payloads with an optional TTL.
type Cache interface {
	// Get returns the payload for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
