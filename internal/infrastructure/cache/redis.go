package cache

import (
	"context"
	"errors"
	"fmt"
	"glowmart-backend/pkg/cache"
	"glowmart-backend/pkg/logger"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisCache struct {
	client    *redis.Client
	namespace string
}

// NewRedisCache returns a cache shared by every API instance. Keys are
// prefixed with namespace.
func NewRedisCache(ctx context.Context, addr, password string, db int, namespace string) (cache.CacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("unable to reach redis at %s: %w", addr, err)
	}
	return &redisCache{client: client, namespace: namespace}, nil
}

func (r *redisCache) key(k string) string {
	return fmt.Sprintf("%s:%s", r.namespace, k)
}

// Get treats a redis failure as a miss so the caller falls back to the store.
func (r *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logger.WithContext(ctx).Warn().Err(err).Str("key", key).Msg("Cache get failed")
		return nil, false
	}
	return b, true
}

func (r *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *redisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}
