package cipapi

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"github.com/negneg-eq-submitter/internal/domain"
)

// TokenCache stores session tokens between authentications
type TokenCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, token string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NewTokenCache builds the cache selected by config
func NewTokenCache(config domain.CacheConfig) (TokenCache, error) {
	switch config.Backend {
	case "", "none":
		return NoopTokenCache{}, nil
	case "memory":
		return NewMemoryTokenCache(config.MaxItems, config.TokenTTL), nil
	case "redis":
		return NewRedisTokenCache(config.RedisURL, config.TokenTTL)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", config.Backend)
	}
}

// tokenKey creates the cache key for a base URL and user
func tokenKey(baseURL, username string) string {
	hash := sha256.Sum256([]byte(baseURL + "|" + username))
	return fmt.Sprintf("negneg-eq:token:%x", hash[:8])
}

// NoopTokenCache never stores anything
type NoopTokenCache struct{}

func (NoopTokenCache) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (NoopTokenCache) Set(context.Context, string, string) error { return nil }
func (NoopTokenCache) Delete(context.Context, string) error { return nil }
func (NoopTokenCache) Close() error { return nil }

// MemoryTokenCache keeps tokens in a process-local expiring LRU
type MemoryTokenCache struct {
	lru *expirable.LRU[string, string]
}

// NewMemoryTokenCache creates an in-memory cache holding up to size tokens for ttl
func NewMemoryTokenCache(size int, ttl time.Duration) *MemoryTokenCache {
	if size <= 0 {
		size = 16
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MemoryTokenCache{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

// Get returns a cached token
func (m *MemoryTokenCache) Get(_ context.Context, key string) (string, bool, error) {
	token, ok := m.lru.Get(key)
	return token, ok, nil
}

// Set stores a token
func (m *MemoryTokenCache) Set(_ context.Context, key, token string) error {
	m.lru.Add(key, token)
	return nil
}

// Delete removes a token
func (m *MemoryTokenCache) Delete(_ context.Context, key string) error {
	m.lru.Remove(key)
	return nil
}

// Close purges the cache
func (m *MemoryTokenCache) Close() error {
	m.lru.Purge()
	return nil
}

// RedisTokenCache shares tokens between runs through Redis
type RedisTokenCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisTokenCache connects to Redis and verifies the connection
func NewRedisTokenCache(redisURL string, ttl time.Duration) (*RedisTokenCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisTokenCacheFromClient(client, ttl), nil
}

// NewRedisTokenCacheFromClient wraps an existing Redis client
func NewRedisTokenCacheFromClient(client *redis.Client, ttl time.Duration) *RedisTokenCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisTokenCache{redis: client, ttl: ttl}
}

// Get returns a cached token
func (r *RedisTokenCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get token from cache: %w", err)
	}
	return val, true, nil
}

// Set stores a token with the configured TTL
func (r *RedisTokenCache) Set(ctx context.Context, key, token string) error {
	return r.redis.Set(ctx, key, token, r.ttl).Err()
}

// Delete removes a token
func (r *RedisTokenCache) Delete(ctx context.Context, key string) error {
	return r.redis.Del(ctx, key).Err()
}

// Close closes the Redis connection
func (r *RedisTokenCache) Close() error {
	return r.redis.Close()
}
