package lockout

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	failKeyPrefix = "lockout:fail:"
	lockKeyPrefix = "lockout:lock:"
)

// RedisStore keeps lockout state in Redis so multiple instances share
// it. Window and lock expiry ride on key TTLs.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) LockedUntil(ctx context.Context, key string, now time.Time) (*time.Time, error) {
	ttl, err := s.client.TTL(ctx, lockKeyPrefix+key).Result()
	if err != nil {
		return nil, fmt.Errorf("read lockout ttl: %w", err)
	}
	// A missing key reports a negative TTL.
	if ttl <= 0 {
		return nil, nil
	}
	until := now.Add(ttl)
	return &until, nil
}

func (s *RedisStore) AddFailure(ctx context.Context, key string, _ time.Time, window time.Duration) (int, error) {
	failKey := failKeyPrefix + key
	count, err := s.client.Incr(ctx, failKey).Result()
	if err != nil {
		return 0, fmt.Errorf("count login failure: %w", err)
	}
	// Only the first failure starts the window.
	if err := s.client.ExpireNX(ctx, failKey, window).Err(); err != nil {
		return 0, fmt.Errorf("set failure window: %w", err)
	}
	return int(count), nil
}

func (s *RedisStore) Lock(ctx context.Context, key string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, lockKeyPrefix+key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("apply lockout: %w", err)
	}
	if err := s.client.Del(ctx, failKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("reset failure count: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, failKeyPrefix+key, lockKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("clear lockout state: %w", err)
	}
	return nil
}
