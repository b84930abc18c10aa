// Package cache stores rendered artifacts keyed by content.
//
// Rendering the same graph in the same format always produces the same
// bytes, so artifacts requested on demand are cached under a key derived
// from a hash of the rendered graph text and the output format. Three
// backends are provided:
//
//   - [NullCache]: caching disabled
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for the server
//
// Wrap any backend with [Instrument] to report hits, misses and writes to
// the registered observability hooks.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiration.
type Cache interface {
	// Get returns the cached value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// TTLs for cached entries.
const (
	TTLArtifact = 7 * 24 * time.Hour
)
