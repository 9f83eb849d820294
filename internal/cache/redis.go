package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// pageKeyPrefix namespaces cached page HTML
const pageKeyPrefix = "kader:page:"

// RedisCache handles caching and fast state storage
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache connection
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisCache{
		client: client,
	}, nil
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// Client returns the underlying Redis client
func (rc *RedisCache) Client() *redis.Client {
	return rc.client
}

// Set stores a key-value pair with TTL
func (rc *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return rc.client.Set(ctx, key, value, ttl).Err()
}

// Get retrieves a value by key
func (rc *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return rc.client.Get(ctx, key).Result()
}

// Fetcher retrieves the HTML of a page
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// PageCache serves pages from Redis and falls through to next on a miss.
// Only successful fetches are stored.
type PageCache struct {
	cache *RedisCache
	next  Fetcher
	ttl   time.Duration

	hits   int
	misses int
}

// NewPageCache wraps next with a Redis-backed page cache
func NewPageCache(cache *RedisCache, next Fetcher, ttl time.Duration) *PageCache {
	return &PageCache{cache: cache, next: next, ttl: ttl}
}

// Fetch returns the cached page when present, otherwise fetches and stores it.
// Redis errors degrade to an uncached fetch.
func (pc *PageCache) Fetch(ctx context.Context, url string) (string, error) {
	key := PageKey(url)

	cached, err := pc.cache.Get(ctx, key)
	switch {
	case err == nil && cached != "":
		pc.hits++
		return cached, nil
	case err != nil && !errors.Is(err, redis.Nil):
		log.Printf("⚠️  Page cache read failed for %s: %v", url, err)
	}
	pc.misses++

	page, err := pc.next.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	if err := pc.cache.Set(ctx, key, page, pc.ttl); err != nil {
		log.Printf("⚠️  Page cache write failed for %s: %v", url, err)
	}
	return page, nil
}

// Stats returns hit and miss counts since creation
func (pc *PageCache) Stats() (hits, misses int) {
	return pc.hits, pc.misses
}

// PageKey is the Redis key holding a cached page
func PageKey(url string) string {
	return fmt.Sprintf("%s%s", pageKeyPrefix, url)
}
