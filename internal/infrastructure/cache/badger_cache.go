package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"partspricing/internal/errs"
	"partspricing/internal/ports"
)

// BadgerCache is the embedded TTL cache backing the aggregation and search
// paths. Entries carry their TTL natively; pattern invalidation is a prefix
// scan.
type BadgerCache struct {
	db *badger.DB
}

var _ ports.Cache = (*BadgerCache)(nil)

// Config holds badger cache settings.
type Config struct {
	// Path is the badger directory. Empty opens an in-memory instance.
	Path string

	// Logger receives badger's internal logging; nil disables it.
	Logger *slog.Logger
}

// Open opens the badger-backed cache. Callers that cannot open a backend
// should fall back to NewNoop rather than failing startup.
func Open(cfg Config) (*BadgerCache, error) {
	var opts badger.Options
	if cfg.Path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, errs.Wrapf(err, "create cache directory %q", cfg.Path)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errs.Wrap(err, "open badger cache")
	}

	return &BadgerCache{db: db}, nil
}

func (c *BadgerCache) Close() error {
	return c.db.Close()
}

func (c *BadgerCache) Get(ctx context.Context, key string) (string, bool, error) {
	if ctx == nil {
		return "", false, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return "", false, errs.Wrap(err, "check context")
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return "", false, errors.New("key is required")
	}

	var value string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(trimmedKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.Wrap(err, "read cache key")
	}

	return value, true, nil
}

func (c *BadgerCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return errors.New("key is required")
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	err := c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(trimmedKey), []byte(value)).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return errs.Wrap(err, "write cache key")
	}
	return nil
}

func (c *BadgerCache) Delete(ctx context.Context, key string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return errors.New("key is required")
	}

	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(trimmedKey))
	}); err != nil {
		return errs.Wrap(err, "delete cache key")
	}
	return nil
}

// DeletePattern removes every key matching a wildcard prefix pattern such as
// "prices:part:42:*". Only trailing-star patterns are supported; that is the
// one shape invalidation uses.
func (c *BadgerCache) DeletePattern(ctx context.Context, pattern string) (int, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return 0, errs.Wrap(err, "check context")
	}

	prefix, err := prefixFromPattern(pattern)
	if err != nil {
		return 0, err
	}

	var keys [][]byte
	err = c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, errs.Wrap(err, "scan cache keys")
	}

	deleted := 0
	for _, key := range keys {
		if err := c.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(key)
		}); err != nil {
			return deleted, errs.Wrap(err, "delete matched cache key")
		}
		deleted++
	}
	return deleted, nil
}

func prefixFromPattern(pattern string) (string, error) {
	trimmed := strings.TrimSpace(pattern)
	if trimmed == "" {
		return "", errors.New("pattern is required")
	}

	star := strings.Index(trimmed, "*")
	if star < 0 {
		return trimmed, nil
	}
	if star != len(trimmed)-1 {
		return "", fmt.Errorf("unsupported pattern %q: only a trailing wildcard is allowed", pattern)
	}
	prefix := trimmed[:star]
	if prefix == "" {
		return "", fmt.Errorf("refusing to delete all keys with pattern %q", pattern)
	}
	return prefix, nil
}

// badgerLogger adapts slog to badger's logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
