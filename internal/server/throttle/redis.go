package throttle

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "login:failures:"

// Redis is a Throttle shared by every server instance using the same Redis.
// Each failure bumps a counter and pushes its expiry forward, so the key
// disappears once the lockout has elapsed since the last failure.
type Redis struct {
	rdb    redis.Cmdable
	policy Policy
}

func NewRedis(rdb redis.Cmdable, p Policy) *Redis {
	return &Redis{rdb: rdb, policy: p.withDefaults()}
}

func redisKey(email string) string {
	return redisKeyPrefix + key(email)
}

func (r *Redis) IsLocked(ctx context.Context, email string) (bool, error) {
	n, err := r.rdb.Get(ctx, redisKey(email)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis error: %w", err)
	}
	return n >= r.policy.MaxFailures, nil
}

func (r *Redis) RecordFailure(ctx context.Context, email string) error {
	k := redisKey(email)
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, k)
		p.Expire(ctx, k, r.policy.Lockout)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context, email string) error {
	if err := r.rdb.Del(ctx, redisKey(email)).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}
