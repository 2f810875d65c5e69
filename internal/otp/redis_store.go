package otp

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "otp:"

// takeScript deletes the code hash when it holds the submitted code.
// A miss bumps the attempts field and deletes the hash at ARGV[2] misses.
var takeScript = redis.NewScript(`
local code = redis.call("HGET", KEYS[1], "code")
if not code then
	return 0
end
if code == ARGV[1] then
	redis.call("DEL", KEYS[1])
	return 1
end
if redis.call("HINCRBY", KEYS[1], "attempts", 1) >= tonumber(ARGV[2]) then
	redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore keeps codes in Redis and lets key expiry enforce the TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(phone string) string {
	return redisKeyPrefix + phone
}

func (s *RedisStore) Put(ctx context.Context, phone, code string, issuedAt time.Time) error {
	remaining := s.ttl - time.Since(issuedAt)
	if remaining <= 0 {
		return s.client.Del(ctx, s.key(phone)).Err()
	}
	key := s.key(phone)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "code", code, "attempts", 0)
		pipe.PExpire(ctx, key, remaining)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}
	return nil
}

func (s *RedisStore) TakeIfValid(ctx context.Context, phone, code string, now time.Time) (bool, error) {
	n, err := takeScript.Run(ctx, s.client, []string{s.key(phone)}, code, MaxFailedAttempts).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to take code: %w", err)
	}
	return n == 1, nil
}

// PurgeExpired is a no-op: Redis expires keys on its own.
func (s *RedisStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
