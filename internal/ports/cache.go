package ports

import (
	"context"
	"time"
)

// Cache defines a key-value capability with per-write TTL. Adapters may be
// backed by badger or other stores; a no-op adapter stands in when no
// backend is reachable (degraded mode).
//
// Get never fails for a missing key: it reports found=false. Callers treat
// cache errors as misses, never as pipeline failures.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// DeletePattern removes every key matching a wildcard prefix pattern
	// such as "prices:part:42:*" and returns the number removed.
	DeletePattern(ctx context.Context, pattern string) (int, error)
}
