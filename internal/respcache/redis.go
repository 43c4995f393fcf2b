package respcache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

const (
	redisPrefix = "locality:"

	breakerThreshold = 5
	breakerCooldown  = 30 * time.Second
)

// Redis shares cached responses across API replicas. After repeated
// failures it stops calling Redis for a cooldown and reports ErrUnavailable,
// which callers treat as a miss.
type Redis struct {
	rc  *redis.Client
	ttl time.Duration
	cb  *breaker
}

// NewRedis connects lazily to addr; the first command dials.
func NewRedis(addr, password string, db int, ttl time.Duration) *Redis {
	if db < 0 {
		db = 0
	}
	return NewRedisClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), ttl)
}

// NewRedisClient wraps an existing client.
func NewRedisClient(rc *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rc: rc, ttl: ttl, cb: newBreaker(breakerThreshold, breakerCooldown)}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if !r.cb.allow() {
		record(false)
		return nil, false, ErrUnavailable
	}
	b, err := r.rc.Get(ctx, redisPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		r.cb.record(nil)
		record(false)
		return nil, false, nil
	}
	r.cb.record(err)
	if err != nil {
		record(false)
		return nil, false, eris.Wrap(err, "respcache: redis get")
	}
	record(true)
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, val []byte) error {
	if !r.cb.allow() {
		return ErrUnavailable
	}
	err := r.rc.Set(ctx, redisPrefix+key, val, r.ttl).Err()
	r.cb.record(err)
	return eris.Wrap(err, "respcache: redis set")
}

// Ping checks connectivity, bypassing the breaker.
func (r *Redis) Ping(ctx context.Context) error {
	return eris.Wrap(r.rc.Ping(ctx).Err(), "respcache: redis ping")
}

func (r *Redis) Close() error {
	return r.rc.Close()
}
