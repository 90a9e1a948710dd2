package redis

// Package redis provides Redis-based adapters for the creditfeed system.

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/creditfeed/internal/ports"
)

const defaultLockout = 15 * time.Minute

var _ ports.LoginThrottle = (*LoginThrottle)(nil)

// LoginThrottleOptions configures LoginThrottle.
type LoginThrottleOptions struct {
	// MaxFailures is the number of failures that locks a key. Zero or less disables throttling.
	MaxFailures int
	// Lockout is how long a failure count lives after the most recent failure.
	Lockout time.Duration
	// Prefix namespaces keys; defaults to "login_failures:".
	Prefix string
}

// LoginThrottle counts failed logins in Redis. Counters expire Lockout after the last failure,
// so a locked key unlocks on its own.
type LoginThrottle struct {
	client      redis.UniversalClient
	prefix      string
	maxFailures int
	lockout     time.Duration
}

// NewLoginThrottle creates a Redis-backed login throttle.
func NewLoginThrottle(client redis.UniversalClient, opts LoginThrottleOptions) *LoginThrottle {
	t := &LoginThrottle{
		client:      client,
		prefix:      opts.Prefix,
		maxFailures: opts.MaxFailures,
		lockout:     opts.Lockout,
	}
	if t.prefix == "" {
		t.prefix = "login_failures:"
	}
	if t.lockout <= 0 {
		t.lockout = defaultLockout
	}
	return t
}

func (t *LoginThrottle) enabled() bool {
	return t != nil && t.client != nil && t.maxFailures > 0
}

// Allowed reports whether key is below the failure threshold.
func (t *LoginThrottle) Allowed(ctx context.Context, key string) (bool, error) {
	if !t.enabled() || key == "" {
		return true, nil
	}

	raw, err := t.client.Get(ctx, t.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return true, nil
		}
		return false, fmt.Errorf("redis get: %w", err)
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return false, fmt.Errorf("parse failure count: %w", err)
	}
	return n < t.maxFailures, nil
}

// RecordFailure increments the failure count and refreshes its expiry.
func (t *LoginThrottle) RecordFailure(ctx context.Context, key string) error {
	if !t.enabled() || key == "" {
		return nil
	}

	redisKey := t.prefix + key
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, t.lockout)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record login failure: %w", err)
	}
	return nil
}

// Reset clears the failure count for key.
func (t *LoginThrottle) Reset(ctx context.Context, key string) error {
	if !t.enabled() || key == "" {
		return nil
	}
	return t.client.Del(ctx, t.prefix+key).Err()
}
