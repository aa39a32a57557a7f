package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CounterStore implements domain.CounterStore on Redis. INCR is atomic on
// the server, so concurrent requests for the same bucket never lose
// increments.
type CounterStore struct {
	client *redis.Client
}

// NewCounterStore creates a Redis-backed counter store.
func NewCounterStore(client *redis.Client) *CounterStore {
	return &CounterStore{client: client}
}

// Increment atomically increments the counter at key and returns the new
// value. A missing key counts from zero.
func (s *CounterStore) Increment(ctx context.Context, key string) (int64, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to INCR %s: %w", key, err)
	}
	return count, nil
}

// Expire sets the key's time to live.
func (s *CounterStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("failed to EXPIRE %s: %w", key, err)
	}
	return nil
}
