package cache

import (
	"context"
	"time"

	"partspricing/internal/ports"
)

// Noop is the degraded-mode cache: every operation succeeds and stores
// nothing. The pipeline stays correct without a cache, only slower.
type Noop struct{}

var _ ports.Cache = Noop{}

func NewNoop() Noop { return Noop{} }

func (Noop) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, nil
}

func (Noop) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return nil
}

func (Noop) Delete(ctx context.Context, key string) error {
	return nil
}

func (Noop) DeletePattern(ctx context.Context, pattern string) (int, error) {
	return 0, nil
}
