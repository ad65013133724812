package session

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "session:"

// RedisStore keeps one key per live session token, expiring with the token.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Put(ctx context.Context, tokenID string, userID uint, ttl time.Duration) error {
	return s.rdb.Set(ctx, keyPrefix+tokenID, strconv.FormatUint(uint64(userID), 10), ttl).Err()
}

func (s *RedisStore) Exists(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, keyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) Delete(ctx context.Context, tokenID string) error {
	return s.rdb.Del(ctx, keyPrefix+tokenID).Err()
}
