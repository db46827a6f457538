package tenant

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCache shares validated organization lookups across instances through
// Redis, so a tenant suspended on one node stops resolving everywhere once
// the TTL lapses or the key is deleted.
type redisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a Redis-backed lookup cache. The client's lifecycle
// belongs to the caller; Close on the cache is a no-op.
func NewRedisCache(client *redis.Client, keyPrefix string) Cache {
	if keyPrefix == "" {
		keyPrefix = "tenant:org:"
	}
	return &redisCache{client: client, prefix: keyPrefix}
}

func (c *redisCache) Get(ctx context.Context, key string) (*Organization, bool) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	var org Organization
	if err := json.Unmarshal(data, &org); err != nil {
		return nil, false
	}
	return &org, true
}

func (c *redisCache) Set(ctx context.Context, key string, org *Organization, ttl time.Duration) {
	data, err := json.Marshal(org)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.prefix+key, data, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) {
	_ = c.client.Del(ctx, c.prefix+key).Err()
}

func (c *redisCache) Close() error { return nil }
