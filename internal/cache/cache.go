// Package cache provides the read-through edge cache spec.md §9 scopes
// narrowly: "specify a read-through cache only at the HTTP edge if
// present. Engine logic must remain correct when all caches are cold."
// Nothing under internal/service or internal/pricing consults this
// package; only internal/api handlers that serve Plan/Account lookups do,
// and every Get falls through to the repository on a miss or when the
// cache is disabled. Grounded on the teacher's internal/cache +
// internal/redis split (subratsahilgupta-flexprice).
package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sugu-inc/modern-billing/internal/config"
	"github.com/sugu-inc/modern-billing/internal/logger"
)

// Prefixes namespace cached keys by entity type, mirroring the teacher's
// PrefixPlan/PrefixCustomer constants, trimmed to the two read-mostly
// lookups this spec's edge cache exists for.
const (
	PrefixAccount = "account:v1:"
	PrefixPlan    = "plan:v1:"
)

// Cache is the read-through interface handlers depend on. A nil *Cache
// (Redis disabled in config) is valid and always misses, so callers never
// need a separate "is caching on" branch.
type Cache struct {
	rdb     *redis.Client
	log     *logger.Logger
	ttl     time.Duration
	enabled bool
}

// New dials Redis per config.RedisConfig. When cfg.Enabled is false, it
// returns a Cache that always misses rather than a nil pointer, so
// handlers can call it unconditionally.
func New(cfg config.RedisConfig, log *logger.Logger) (*Cache, error) {
	if !cfg.Enabled {
		return &Cache{log: log, enabled: false}, nil
	}

	opts := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.Address == "" {
		return &Cache{log: log, enabled: false}, nil
	}
	_ = tls.Config{} // placeholder parity with teacher's optional TLS dial, unused: this engine's Redis runs in-cluster over plaintext.

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{rdb: rdb, log: log, ttl: ttl, enabled: true}, nil
}

// Get unmarshals a cached JSON value into dest, reporting whether it was
// found. Any Redis error (including a disabled cache) is treated as a
// miss — callers fall through to the repository.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil || !c.enabled {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Debugw("cache get error", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		c.log.Debugw("cache unmarshal error", "key", key, "error", err)
		return false
	}
	return true
}

// Set JSON-encodes value and stores it under key with the configured TTL.
// Errors are logged, never returned — a failed cache write must not fail
// the caller's read.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	if c == nil || !c.enabled {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Debugw("cache marshal error", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Debugw("cache set error", "key", key, "error", err)
	}
}

// Invalidate removes a key, called after a write to the underlying entity
// so the next read repopulates from the store.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if c == nil || !c.enabled {
		return
	}
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.log.Debugw("cache invalidate error", "key", key, "error", err)
	}
}

// Close releases the underlying Redis connection pool, if any.
func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
