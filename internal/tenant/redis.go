package tenant

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "crm:active_org:"

// RedisStore is a Store backed by a per-user Redis key. Selections are durable
// across sessions and never shared between users.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, userID string) (uint64, bool, error) {
	val, err := s.client.Get(ctx, keyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("active context read: %w", err)
	}

	orgID, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		// A corrupt value is equivalent to no selection; the resolver will
		// self-heal it on the next resolution.
		return 0, false, nil
	}
	return orgID, true, nil
}

func (s *RedisStore) Set(ctx context.Context, userID string, orgID uint64) error {
	if err := s.client.Set(ctx, keyPrefix+userID, strconv.FormatUint(orgID, 10), 0).Err(); err != nil {
		return fmt.Errorf("active context write: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, keyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("active context clear: %w", err)
	}
	return nil
}
