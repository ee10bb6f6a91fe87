// Package cache stores rendered labels and sheets keyed by their inputs.
//
// Label generation is deterministic: the same payload, name, font and
// geometry always produce the same bytes. That makes rendered output safe
// to cache by a hash of its inputs. Three backends are provided:
//   - NullCache: caching disabled
//   - FileCache: zstd-compressed entries under a directory, for the CLI
//   - RedisCache: shared cache for several generator processes
//
// Keys come from a Keyer so callers never assemble them by hand:
//
//	key := keyer.LabelKey(payload, cache.LabelKeyOpts{Name: name, Level: "low", ...})
//	if data, hit, err := c.Get(ctx, key); err == nil && hit {
//	    // reuse
//	}
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the entry for key. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Entry lifetimes. Rendered output never goes stale on its own (keys cover
// every input), so these only bound disk and memory use.
const (
	TTLLabel = 30 * 24 * time.Hour
	TTLSheet = 7 * 24 * time.Hour
)
