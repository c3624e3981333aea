package confirmation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"impact/pkg/platform/sentinel"
)

// Redis key prefix for confirmation tokens.
const tokenKeyPrefix = "confirm:token:"

// RedisStore is a Redis-backed confirmation token store. TTL handling is
// delegated to Redis key expiry, so an expired token is indistinguishable
// from an unknown one (both report sentinel.ErrNotFound).
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a Redis-backed confirmation token store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, token, cardID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, tokenKeyPrefix+token, cardID, ttl).Err(); err != nil {
		return fmt.Errorf("store confirmation token: %w", err)
	}
	return nil
}

func (s *RedisStore) Consume(ctx context.Context, token string) (string, error) {
	cardID, err := s.client.GetDel(ctx, tokenKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("consume confirmation token: %w", err)
	}
	return cardID, nil
}
