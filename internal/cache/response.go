// Copyright (c) 2026 Printfolio Contributors
// All rights reserved. See LICENSE for details.

// response.go provides a Valkey-backed cache for rendered API responses.
// Gallery listings are read-heavy and change rarely, so serialized JSON
// payloads are kept for a short TTL and the whole namespace is dropped
// whenever an item or tag changes.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// responseKeyPrefix is the Valkey key prefix for cached responses.
	responseKeyPrefix = "api:"

	// DefaultResponseTTL is how long a rendered response stays cached.
	DefaultResponseTTL = 60 * time.Second
)

// ResponseCache manages cached API payloads in Valkey. A nil client makes
// every operation a no-op, so callers need no cache-enabled branches.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResponseCache creates a response cache backed by the given Valkey
// client, which may be nil to disable caching.
func NewResponseCache(client *redis.Client, ttl time.Duration) *ResponseCache {
	if ttl == 0 {
		ttl = DefaultResponseTTL
	}
	return &ResponseCache{client: client, ttl: ttl}
}

// Get retrieves a cached payload. Returns false on miss or error.
func (rc *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if rc == nil || rc.client == nil {
		return nil, false
	}
	val, err := rc.client.Get(ctx, responseKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("response cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("response cache hit", "key", key)
	return val, true
}

// Set stores a payload under the configured TTL.
func (rc *ResponseCache) Set(ctx context.Context, key string, payload []byte) {
	if rc == nil || rc.client == nil {
		return
	}
	if err := rc.client.Set(ctx, responseKeyPrefix+key, payload, rc.ttl).Err(); err != nil {
		slog.Warn("response cache set error", "key", key, "error", err)
	}
}

// InvalidateAll removes every cached response by scanning for the prefix.
// Called when portfolio data changes, since any listing could be affected.
func (rc *ResponseCache) InvalidateAll(ctx context.Context) {
	if rc == nil || rc.client == nil {
		return
	}
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := rc.client.Scan(ctx, cursor, responseKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("response cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := rc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("response cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	slog.Debug("response cache cleared", "deleted", deleted)
}
