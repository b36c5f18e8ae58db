package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps Redis for read-side catalog caching. A nil *Cache is a valid
// no-op cache, so callers never branch on whether Redis is configured.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection.
func New(addr string, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// Get unmarshals the cached value for key into dest. Returns false on a
// miss or when the cache is disabled.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		// stale or corrupt payload, drop it and report a miss
		c.client.Del(ctx, key)
		return false, nil
	}

	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}

	return nil
}

// InvalidateDeals removes cached deal responses for one scope. Called after
// each featured-deal replacement.
func (c *Cache) InvalidateDeals(ctx context.Context, countryCode string) error {
	if c == nil {
		return nil
	}

	if err := c.client.Del(ctx, DealsKey(countryCode)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate deals for %q: %w", countryCode, err)
	}

	return nil
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// DealsKey builds the cache key for a featured-deals response.
func DealsKey(countryCode string) string {
	if countryCode == "" {
		countryCode = "global"
	}
	return fmt.Sprintf("deals:%s", countryCode)
}

// HistoryKey builds the cache key for a price-history response.
func HistoryKey(productID, countryCode string, days int) string {
	return fmt.Sprintf("history:%s:%s:%d", productID, countryCode, days)
}
