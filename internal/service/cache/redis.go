package cache

import (
	"context"
	"time"

	"FinSight/internal/domain/repository"
	applogger "FinSight/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "finsight:fetch:"

// Redis is a shared TTL cache backed by go-redis. Unlike the memory store
// it has no size bound; expiry is delegated to the server.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    *applogger.Logger
}

// NewRedis creates a redis-backed store.
func NewRedis(client *redis.Client, ttl time.Duration, log *applogger.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, log: log}
}

// Get returns the cached value for (symbol, operation) if present.
func (r *Redis) Get(ctx context.Context, symbol, operation string) (any, bool) {
	key := redisKeyPrefix + Key(symbol, operation)

	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil && r.log != nil {
			r.log.Warn("redis get failed", applogger.String("key", key), applogger.Error(err))
		}
		return nil, false
	}

	value, err := Decode(b)
	if err != nil {
		if r.log != nil {
			r.log.Warn("redis decode failed", applogger.String("key", key), applogger.Error(err))
		}
		r.client.Del(ctx, key)
		return nil, false
	}
	return value, true
}

// Put stores a value with the configured TTL. Values the codec cannot
// represent are silently not cached.
func (r *Redis) Put(ctx context.Context, symbol, operation string, value any) {
	key := redisKeyPrefix + Key(symbol, operation)

	b, err := Encode(value)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, b, r.ttl).Err(); err != nil && r.log != nil {
		r.log.Warn("redis set failed", applogger.String("key", key), applogger.Error(err))
	}
}

// Clear removes all cached fetch results and returns how many were removed.
func (r *Redis) Clear(ctx context.Context) int {
	var removed int
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err == nil {
			removed++
		}
	}
	if err := iter.Err(); err != nil && r.log != nil {
		r.log.Warn("redis clear scan failed", applogger.Error(err))
	}
	return removed
}

// Stats reports the current cache contents. Ages are derived from the
// remaining server-side TTL.
func (r *Redis) Stats(ctx context.Context) repository.CacheStats {
	stats := repository.CacheStats{
		MaxSize:    0,
		TTLSeconds: r.ttl.Seconds(),
	}

	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		remaining, err := r.client.TTL(ctx, key).Result()
		if err != nil {
			continue
		}
		stats.Size++
		stats.Entries = append(stats.Entries, repository.CacheEntryStat{
			Key:              key[len(redisKeyPrefix):],
			AgeSeconds:       (r.ttl - remaining).Seconds(),
			ExpiresInSeconds: remaining.Seconds(),
			IsExpired:        remaining <= 0,
		})
	}
	if err := iter.Err(); err != nil && r.log != nil {
		r.log.Warn("redis stats scan failed", applogger.Error(err))
	}
	return stats
}
