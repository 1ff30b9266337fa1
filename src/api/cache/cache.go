// Package cache is the read-through page cache. Keys carry the network as a
// prefix (`${network}_...`) so invalidation can sweep one network at a time.
package cache

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type PageCache struct {
	rdb     *redis.Client
	enabled bool
	ttl     time.Duration
}

// New builds a page cache. With enabled false (IS_CACHING_ALLOWED unset) or
// a nil client, every lookup misses and writes are dropped.
func New(rdb *redis.Client, enabled bool, ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PageCache{rdb: rdb, enabled: enabled && rdb != nil, ttl: ttl}
}

// Key joins the network and key parts into the canonical cache key.
func Key(network string, parts ...string) string {
	return network + "_" + strings.Join(parts, "_")
}

// Get returns the cached serialized payload, if any.
func (c *PageCache) Get(ctx context.Context, key string) (string, bool) {
	if !c.enabled {
		return "", false
	}
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores a serialized payload under the key with the configured TTL.
func (c *PageCache) Set(ctx context.Context, key, payload string) {
	if !c.enabled {
		return
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		log.Printf("cache set %s: %v", key, err)
	}
}

// DeleteKeys removes every key matching the pattern. Used on content
// mutation to invalidate the affected listing pages.
func (c *PageCache) DeleteKeys(ctx context.Context, pattern string) {
	if !c.enabled {
		return
	}
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("cache scan %s: %v", pattern, err)
		return
	}
	if len(keys) > 0 {
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			log.Printf("cache del %s: %v", pattern, err)
		}
	}
}
