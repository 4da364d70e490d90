// Package cache provides pluggable byte caching for structure downloads,
// parsed molecules, and rendered artifacts.
//
// Three backends are provided: FileCache for CLI usage, RedisCache for the
// live viewer server, and NullCache for tests or disabled caching. Keys are
// produced by a Keyer so call sites never concatenate key strings by hand.
package cache

import (
	"context"
	"time"
)

// Cache is the storage interface shared by all backends.
//
// Get returns (data, true, nil) on a hit and (nil, false, nil) on a miss;
// the error is reserved for backend failures. A ttl of zero on Set means
// the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
