package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
)

// Cache is a read-through cache of JSON-encoded values over a Store. Keys
// are hashed into a namespace so arbitrary query text is a valid key. A nil
// *Cache is valid and never caches. Store failures are logged and bypassed.
type Cache struct {
	store  Store
	logger *slog.Logger
}

// NewCache creates a Cache backed by the given Store. Returns nil when store
// is nil, which disables caching.
func NewCache(store Store, logger *slog.Logger) *Cache {
	if store == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: store, logger: logger}
}

// Key derives the storage key for lookup under namespace.
func Key(namespace, lookup string) string {
	sum := sha256.Sum256([]byte(lookup))
	return namespace + "/" + hex.EncodeToString(sum[:])
}

// Fetch returns the cached value for (namespace, lookup) or calls fetch and
// stores its result. Errors from fetch are returned and never cached.
func Fetch[T any](ctx context.Context, c *Cache, namespace, lookup string, fetch func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return fetch(ctx)
	}

	key := Key(namespace, lookup)

	entries, err := c.store.Load(ctx, key)
	switch {
	case err == nil && len(entries) == 1:
		var cached T
		if err := json.Unmarshal(entries[0].Value, &cached); err == nil {
			return cached, nil
		}
		c.logger.WarnContext(ctx, "discarding undecodable cache entry", "key", key)
	case err != nil && !errors.Is(err, ErrKeyNotFound):
		c.logger.WarnContext(ctx, "cache load failed", "key", key, "error", err)
	}

	value, err := fetch(ctx)
	if err != nil {
		return value, err
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.WarnContext(ctx, "cache encode failed", "key", key, "error", err)
		return value, nil
	}
	if err := c.store.Save(ctx, Entry{Key: key, Value: data}); err != nil {
		c.logger.WarnContext(ctx, "cache save failed", "key", key, "error", err)
	}

	return value, nil
}
