package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a fail-open Redis-backed cache: any Redis error (including
// unreachable) is logged and treated as a miss/no-op rather than
// propagated, since retrieval context and tool results are always safely
// recomputable — an external dependency failure must never abort a task.
type Cache struct {
	client           *redis.Client
	operationTimeout time.Duration
	metrics          *Metrics
}

// New constructs a Cache against a Redis instance at addr/db. It does not
// ping eagerly — the first fail-open Get/Set call discovers reachability.
func New(addr string, db int, operationTimeout time.Duration) *Cache {
	if operationTimeout <= 0 {
		operationTimeout = 2 * time.Second
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	return &Cache{client: client, operationTimeout: operationTimeout, metrics: NewMetrics()}
}

// NewWithClient constructs a Cache over an already-configured go-redis
// client (used by tests against miniredis).
func NewWithClient(client *redis.Client, operationTimeout time.Duration) *Cache {
	if operationTimeout <= 0 {
		operationTimeout = 2 * time.Second
	}
	return &Cache{client: client, operationTimeout: operationTimeout, metrics: NewMetrics()}
}

// Close releases the underlying Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Metrics exposes a snapshot of accumulated hit/miss/set/delete/error
// counts, overall and per category.
func (c *Cache) Metrics() Snapshot {
	return c.metrics.Snapshot()
}

// HealthStatus reports a Cache's reachability for a health-check side
// channel. Enabled is always true for a constructed Cache (a nil *Cache,
// meaning caching is turned off entirely, is reported by the caller, not
// by this type); Connected reflects the most recent Ping; Message carries
// the Redis error text when disconnected.
type HealthStatus struct {
	Enabled   bool
	Connected bool
	Message   string
}

// Health reports whether Redis is reachable right now. It never returns a
// Go error: an unreachable backend is itself a reportable status, not a
// failure of the health check.
func (c *Cache) Health(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, c.operationTimeout)
	defer cancel()
	if err := c.client.Ping(ctx).Err(); err != nil {
		return HealthStatus{Enabled: true, Connected: false, Message: err.Error()}
	}
	return HealthStatus{Enabled: true, Connected: true}
}

// Get fetches and JSON-decodes the value stored at key into dest (the
// cache only ever holds JSON, so this doubles as get_json). Returns
// (false, nil) on a cache miss or any Redis-side error (fail-open); returns
// (false, err) only if a value was found but failed to decode, which
// indicates a caller-side programming error (mismatched dest type), not a
// transient fault.
func (c *Cache) Get(ctx context.Context, category, key string, dest any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.operationTimeout)
	defer cancel()

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.recordMiss(category)
		return false, nil
	}
	if err != nil {
		slog.Warn("cache get failed, treating as miss", "key", key, "error", err)
		c.metrics.recordError(category)
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.metrics.recordError(category)
		return false, err
	}
	c.metrics.recordHit(category)
	return true, nil
}

// Set JSON-encodes value and stores it at key with the given ttl (set_json
// in all but name — every value that passes through this cache is JSON).
// Errors are logged and swallowed (fail-open): a cache write that doesn't
// land just means the next Get recomputes, never a task failure.
func (c *Cache) Set(ctx context.Context, category, key string, value any, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, c.operationTimeout)
	defer cancel()

	data, err := json.Marshal(value)
	if err != nil {
		slog.Warn("cache set failed to marshal value", "key", key, "error", err)
		c.metrics.recordError(category)
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		slog.Warn("cache set failed, continuing without caching", "key", key, "error", err)
		c.metrics.recordError(category)
		return
	}
	c.metrics.recordSet(category)
}

// Delete removes key. Errors are logged and swallowed (fail-open).
func (c *Cache) Delete(ctx context.Context, category, key string) {
	ctx, cancel := context.WithTimeout(ctx, c.operationTimeout)
	defer cancel()

	if err := c.client.Del(ctx, key).Err(); err != nil {
		slog.Warn("cache delete failed", "key", key, "error", err)
		c.metrics.recordError(category)
		return
	}
	c.metrics.recordDelete(category)
}

// InvalidatePattern deletes every key matching pattern (a Redis glob, e.g.
// "tool:v1:*") and returns how many keys were removed. It scans rather
// than calling KEYS, so it never blocks the server on a large keyspace.
// Fail-open: a scan or delete error is logged and the count returned so
// far, never propagated as a Go error.
func (c *Cache) InvalidatePattern(ctx context.Context, category, pattern string) int {
	ctx, cancel := context.WithTimeout(ctx, c.operationTimeout)
	defer cancel()

	var cursor uint64
	var removed int
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("cache invalidate_pattern scan failed", "pattern", pattern, "error", err)
			c.metrics.recordError(category)
			return removed
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				slog.Warn("cache invalidate_pattern delete failed", "pattern", pattern, "error", err)
				c.metrics.recordError(category)
				return removed
			}
			removed += int(n)
			for range keys {
				c.metrics.recordDelete(category)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return removed
}
