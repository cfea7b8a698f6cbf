package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxFailures   = 5
	defaultFailureWindow = 15 * time.Minute
)

// LoginThrottle counts login attempts in Redis until one succeeds.
// Key format: login_failures:<kind>:<email>
// Every attempt pushes the key's expiry out by the window.
type LoginThrottle struct {
	client      *redis.Client
	maxFailures int64
	window      time.Duration
}

// NewLoginThrottle falls back to 5 failures per 15 minutes for non-positive settings.
func NewLoginThrottle(client *redis.Client, maxFailures int, window time.Duration) *LoginThrottle {
	if maxFailures <= 0 {
		maxFailures = defaultMaxFailures
	}
	if window <= 0 {
		window = defaultFailureWindow
	}
	return &LoginThrottle{client: client, maxFailures: int64(maxFailures), window: window}
}

// Acquire reserves one login attempt for key and reports whether it may
// proceed. INCR and EXPIRE run in one MULTI/EXEC, so concurrent callers each
// see a distinct count and at most maxFailures of them are let through per
// window. A failed attempt keeps its reservation; Reset clears them all.
func (t *LoginThrottle) Acquire(ctx context.Context, key string) (bool, error) {
	k := t.key(key)
	var incr *redis.IntCmd
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.Expire(ctx, k, t.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("throttle acquire: %w", err)
	}
	return incr.Val() <= t.maxFailures, nil
}

func (t *LoginThrottle) Reset(ctx context.Context, key string) error {
	return t.client.Del(ctx, t.key(key)).Err()
}

func (t *LoginThrottle) key(key string) string {
	return "login_failures:" + key
}
