// Package throttle tracks failed login attempts per identifier and locks
// the identifier once the threshold is reached. The window slides: every
// failure restarts the TTL, so a sustained attack keeps the lock alive
// instead of letting it quietly expire mid-stream.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable indicates the throttle store could not be reached.
var ErrStoreUnavailable = errors.New("throttle store unavailable")

// Config holds the lockout tuning.
type Config struct {
	MaxAttempts int           // failures before lockout
	Window      time.Duration // lockout/counting window, restarted per failure
}

// Throttle is a Redis-backed sliding failure counter.
type Throttle struct {
	redis   redis.UniversalClient
	prefix  string
	config  Config
	timeout time.Duration
}

// New creates a Throttle. timeout bounds each store round trip.
func New(client redis.UniversalClient, prefix string, cfg Config, timeout time.Duration) *Throttle {
	if prefix == "" {
		prefix = "login:attempts"
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Throttle{redis: client, prefix: prefix, config: cfg, timeout: timeout}
}

// Identifier builds the canonical throttle key component for a login
// attempt: username and client address together, so an attacker rotating
// addresses does not lock out the account's real owner everywhere.
func Identifier(username, address string) string {
	return username + ":" + address
}

func (t *Throttle) key(identifier string) string {
	return t.prefix + ":" + identifier
}

func (t *Throttle) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, t.timeout)
}

// RecordAttempt records a login outcome and returns the current failure
// count. Success clears the counter unconditionally; failure increments
// it and restarts the window.
func (t *Throttle) RecordAttempt(ctx context.Context, identifier string, success bool) (int, error) {
	ctx, cancel := t.opCtx(ctx)
	defer cancel()

	if success {
		if err := t.redis.Del(ctx, t.key(identifier)).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return 0, nil
	}

	var incr *redis.IntCmd
	_, err := t.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, t.key(identifier))
		pipe.Expire(ctx, t.key(identifier), t.config.Window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return int(incr.Val()), nil
}

// IsLocked reports whether the identifier has reached the failure
// threshold. Missing counters read as zero and do not reveal whether the
// identifier exists.
func (t *Throttle) IsLocked(ctx context.Context, identifier string) (bool, error) {
	count, err := t.Failures(ctx, identifier)
	if err != nil {
		return false, err
	}
	return count >= t.config.MaxAttempts, nil
}

// Failures returns the current failure count for the identifier.
func (t *Throttle) Failures(ctx context.Context, identifier string) (int, error) {
	ctx, cancel := t.opCtx(ctx)
	defer cancel()

	count, err := t.redis.Get(ctx, t.key(identifier)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

// LockRemaining returns how long the identifier stays locked. Zero when
// the counter has no TTL or does not exist.
func (t *Throttle) LockRemaining(ctx context.Context, identifier string) (time.Duration, error) {
	ctx, cancel := t.opCtx(ctx)
	defer cancel()

	ttl, err := t.redis.PTTL(ctx, t.key(identifier)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}
