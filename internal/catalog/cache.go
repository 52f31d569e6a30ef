package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const listVersionKey = "catalog:list:version"

// Cache stores catalog JSON payloads in Redis. List entries are namespaced by
// a version counter so one INCR retires every cached listing.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper. A nil client or non-positive ttl disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if !c.enabled() || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if !c.enabled() || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// ListVersion returns the current listing generation.
func (c *Cache) ListVersion(ctx context.Context) string {
	if !c.enabled() {
		return "0"
	}
	v, err := c.client.Get(ctx, listVersionKey).Int64()
	if err != nil {
		return "0"
	}
	return strconv.FormatInt(v, 10)
}

// Evict removes the given detail keys and retires all cached listings.
func (c *Cache) Evict(ctx context.Context, keys ...string) error {
	if !c.enabled() {
		return nil
	}
	pipe := c.client.TxPipeline()
	if len(keys) > 0 {
		pipe.Del(ctx, keys...)
	}
	pipe.Incr(ctx, listVersionKey)
	_, err := pipe.Exec(ctx)
	return err
}
