package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var _ Backend = (*Redis)(nil)

// allowScript evicts entries that fell out of the window, checks the
// budget, and records the new event only when admitted. Running it as a
// single script keeps the cycle atomic across API replicas.
//
// KEYS[1] sorted set, ARGV[1] cutoff score, ARGV[2] limit,
// ARGV[3] new score, ARGV[4] member, ARGV[5] key TTL seconds.
var allowScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
local count = redis.call('ZCARD', KEYS[1])
if count >= tonumber(ARGV[2]) then
  return 0
end
redis.call('ZADD', KEYS[1], ARGV[3], ARGV[4])
redis.call('EXPIRE', KEYS[1], ARGV[5])
return 1
`)

const rateKeyPrefix = "ratelimit:"

// Redis is the shared sliding-window backend. Each key is a sorted set of
// event timestamps scored in milliseconds.
type Redis struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, now: time.Now}
}

func (r *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := r.now()
	cutoff := now.Add(-window).UnixMilli()
	ttl := int64(window/time.Second) + 1

	res, err := allowScript.Run(ctx, r.client, []string{rateKeyPrefix + key},
		cutoff, limit, now.UnixMilli(), uuid.NewString(), ttl).Int64()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (r *Redis) RetryAfter(ctx context.Context, key string, window time.Duration) (time.Duration, error) {
	oldest, err := r.client.ZRangeWithScores(ctx, rateKeyPrefix+key, 0, 0).Result()
	if err != nil {
		return 0, err
	}
	if len(oldest) == 0 {
		return 0, nil
	}
	opensAt := time.UnixMilli(int64(oldest[0].Score)).Add(window)
	if wait := opensAt.Sub(r.now()); wait > 0 {
		return wait, nil
	}
	return 0, nil
}

func (r *Redis) Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	now := r.now()
	cutoff := now.Add(-window).UnixMilli()

	pipe := r.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, rateKeyPrefix+key, "-inf", strconv.FormatInt(cutoff, 10))
	card := pipe.ZCard(ctx, rateKeyPrefix+key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	if remaining := limit - int(card.Val()); remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}
