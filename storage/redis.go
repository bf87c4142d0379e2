package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/richinex/seekr/search"
)

// DefaultNewsTTL bounds how long Redis keeps a category entry. Freshness
// is decided by the news service from FetchedAt; the TTL only evicts.
const DefaultNewsTTL = 15 * time.Minute

const newsKeyPrefix = "seekr:news:"

// RedisNewsCache shares the news cache between processes.
type RedisNewsCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisNewsCache wraps client. A non-positive ttl selects DefaultNewsTTL.
func NewRedisNewsCache(client redis.UniversalClient, ttl time.Duration) *RedisNewsCache {
	if ttl <= 0 {
		ttl = DefaultNewsTTL
	}
	return &RedisNewsCache{client: client, ttl: ttl}
}

// DialRedisNewsCache connects to addr and verifies it with PING.
func DialRedisNewsCache(ctx context.Context, addr string, ttl time.Duration) (*RedisNewsCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}
	return NewRedisNewsCache(client, ttl), nil
}

func newsKey(category string) string {
	return newsKeyPrefix + category
}

// Get reads and decodes the entry for category.
func (c *RedisNewsCache) Get(ctx context.Context, category string) (search.NewsEntry, bool, error) {
	raw, err := c.client.Get(ctx, newsKey(category)).Bytes()
	if errors.Is(err, redis.Nil) {
		return search.NewsEntry{}, false, nil
	}
	if err != nil {
		return search.NewsEntry{}, false, fmt.Errorf("redis get: %w", err)
	}

	var entry search.NewsEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return search.NewsEntry{}, false, fmt.Errorf("decode news entry: %w", err)
	}
	return entry, true, nil
}

// Set stores entry for category with the configured TTL.
func (c *RedisNewsCache) Set(ctx context.Context, category string, entry search.NewsEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode news entry: %w", err)
	}
	if err := c.client.Set(ctx, newsKey(category), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (c *RedisNewsCache) Close() error {
	return c.client.Close()
}

var _ search.NewsCache = (*RedisNewsCache)(nil)
