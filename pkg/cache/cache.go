// Package cache stores intermediate build results (sprite measurements,
// layouts, rendered artifacts) keyed by a content hash of their inputs.
//
// Three backends implement [Cache]:
//
//   - [FileCache] for the CLI, rooted at ~/.cache/sheetpack
//   - [RedisCache] for the HTTP server, shared between replicas
//   - [NullCache] when caching is disabled (--no-cache)
//
// Keys are built by a [Keyer]; wrap one in [NewScopedKeyer] to isolate
// namespaces that share a backend.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiration.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default time-to-live values per entry kind.
const (
	TTLMeasure  = 30 * 24 * time.Hour
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)
