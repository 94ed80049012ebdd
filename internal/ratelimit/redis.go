package ratelimit

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "codequiz:ratelimit:"

// RedisLimiter is a fixed-window counter keyed per caller.
type RedisLimiter struct {
	rdb    *goredis.Client
	limit  int64
	window time.Duration
}

func NewRedisLimiter(rdb *goredis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, limit: int64(limit), window: window}
}

// Connect opens a client and verifies it with PING.
func Connect(ctx context.Context, addr, password string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := keyPrefix + key

	// INCR and EXPIRE NX share one MULTI: every counter carries a TTL.
	var incr *goredis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return true, fmt.Errorf("redis rate limit: %w", err)
	}
	return incr.Val() <= l.limit, nil
}
