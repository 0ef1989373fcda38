package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares counters across worker processes. Keys expire with the
// window, so the count approximates a sliding window at window granularity.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		prefix: "renobot:rl:",
	}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	k := s.prefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, window)
	ttl := pipe.TTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("ratelimit: redis incr: %w", err)
	}

	resetIn := ttl.Val()
	if resetIn <= 0 {
		resetIn = window
	}
	return incr.Val(), resetIn, nil
}

func (s *RedisStore) Block(ctx context.Context, key string, d time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+"block:"+key, "1", d).Err(); err != nil {
		return fmt.Errorf("ratelimit: redis block: %w", err)
	}
	return nil
}

func (s *RedisStore) IsBlocked(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+"block:"+key).Result()
	if err != nil {
		return false, fmt.Errorf("ratelimit: redis exists: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
