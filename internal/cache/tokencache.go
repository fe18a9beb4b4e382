package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skillbase/skillbase-backend/internal/clients/keycloak"
	"github.com/skillbase/skillbase-backend/internal/envutil"
	"github.com/skillbase/skillbase-backend/internal/logger"
)

// NewTokenCacheFromEnv returns a Redis-backed token cache when REDIS_ADDR is
// set (so all instances share one service-account token) and an in-process
// cache otherwise.
func NewTokenCacheFromEnv(log *logger.Logger) keycloak.TokenCache {
	addr := envutil.String("REDIS_ADDR", "")
	if addr == "" {
		log.Info("REDIS_ADDR not set, using in-process token cache")
		return NewMemoryTokenCache()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: envutil.String("REDIS_PASSWORD", ""),
	})
	return NewRedisTokenCache(log, rdb)
}

type redisTokenCache struct {
	log *logger.Logger
	rdb *redis.Client
}

func NewRedisTokenCache(log *logger.Logger, rdb *redis.Client) keycloak.TokenCache {
	return &redisTokenCache{
		log: log.With("cache", "RedisTokenCache"),
		rdb: rdb,
	}
}

func (c *redisTokenCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("Token cache read failed", "key", key, "error", err)
		}
		return "", false
	}
	return val, val != ""
}

func (c *redisTokenCache) Set(ctx context.Context, key, token string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := c.rdb.Set(ctx, key, token, ttl).Err(); err != nil {
		c.log.Warn("Token cache write failed", "key", key, "error", err)
	}
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

type memoryTokenCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryTokenCache() keycloak.TokenCache {
	return &memoryTokenCache{entries: map[string]memoryEntry{}}
}

func (c *memoryTokenCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.token, true
}

func (c *memoryTokenCache) Set(_ context.Context, key, token string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = memoryEntry{token: token, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}
