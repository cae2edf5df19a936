// README: Per-adapter TTL cache on Redis. Each adapter instance owns its cache.
package adapters

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a small JSON value cache. A nil *Cache is valid and disables
// caching, so adapters never need to branch on availability.
type Cache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewCache(rdb *redis.Client, prefix string, ttl time.Duration) *Cache {
	if rdb == nil {
		return nil
	}
	return &Cache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *Cache) Get(ctx context.Context, key string, v any) bool {
	if c == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, c.prefix+":"+key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func (c *Cache) Set(ctx context.Context, key string, v any) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, c.prefix+":"+key, raw, c.ttl)
}
