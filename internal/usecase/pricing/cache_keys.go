package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"partspricing/internal/bootstrap/logging"
)

// Key space mirrors the invalidation contract: refresh wipes the
// per-part prefixes below, search entries expire on their own.

func cachePricesKey(partID uint64, inStockOnly bool) string {
	return fmt.Sprintf("prices:part:%d:stock:%v", partID, inStockOnly)
}

func cacheBestPriceKey(partID uint64, inStockOnly bool) string {
	return fmt.Sprintf("best_price:part:%d:stock:%v", partID, inStockOnly)
}

func cacheSearchKey(query string, limit int, sources []string) string {
	joined := strings.Join(sources, ",")
	return fmt.Sprintf("search:%s:%d:%s", strings.ToLower(strings.TrimSpace(query)), limit, joined)
}

func invalidationPatterns(partID uint64) []string {
	return []string{
		fmt.Sprintf("prices:part:%d:*", partID),
		fmt.Sprintf("best_price:part:%d:*", partID),
	}
}

// cacheGetJSON reads and decodes a cached value. Any cache failure is a
// miss, never a caller-visible error.
func (s *Service) cacheGetJSON(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}

	value, found, err := s.cache.Get(ctx, key)
	if err != nil {
		logging.Warn(ctx, "cache read failed, treating as miss", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	if !found {
		return false
	}

	if err := json.Unmarshal([]byte(value), out); err != nil {
		logging.Warn(ctx, "cached value is not decodable, treating as miss", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	return true
}

// cacheSetJSON writes a value best-effort. Failures are logged and
// swallowed; the pipeline never fails on a cold cache.
func (s *Service) cacheSetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if s.cache == nil {
		return
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		logging.Warn(ctx, "cache value is not encodable, skipping write", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	if err := s.cache.Set(ctx, key, string(encoded), ttl); err != nil {
		logging.Warn(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// invalidatePart wipes every cached view derived from the part's records.
func (s *Service) invalidatePart(ctx context.Context, partID uint64) {
	if s.cache == nil {
		return
	}

	for _, pattern := range invalidationPatterns(partID) {
		removed, err := s.cache.DeletePattern(ctx, pattern)
		if err != nil {
			logging.Warn(ctx, "cache invalidation failed", slog.String("pattern", pattern), slog.String("error", err.Error()))
			continue
		}
		logging.Debug(ctx, "cache entries invalidated", slog.String("pattern", pattern), slog.Int("removed", removed))
	}
}
