// Package refresh enforces at-most-once redemption of refresh tokens.
// Consuming a jti is a single conditional write against the store; the
// presence of the marker on a later attempt is itself the replay signal.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable indicates the rotation store could not be reached.
// Callers must treat this as a hard failure: guessing "first use" here
// would reopen the replay race the tracker exists to close.
var ErrStoreUnavailable = errors.New("rotation store unavailable")

// Outcome is the result of a consume attempt.
type Outcome int

const (
	// FirstUse means this call won the marker; the caller may rotate.
	FirstUse Outcome = iota
	// AlreadyUsed means the jti was redeemed before. Replay.
	AlreadyUsed
)

const usedMarker = "used"

// Tracker marks refresh-token identifiers as consumed.
type Tracker struct {
	redis   redis.UniversalClient
	prefix  string
	timeout time.Duration
}

// NewTracker creates a Tracker. timeout bounds each store round trip.
func NewTracker(client redis.UniversalClient, prefix string, timeout time.Duration) *Tracker {
	if prefix == "" {
		prefix = "refresh:used"
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Tracker{redis: client, prefix: prefix, timeout: timeout}
}

func (t *Tracker) key(jti string) string {
	return t.prefix + ":" + jti
}

// TryConsume atomically claims jti for ttl. Two concurrent calls with the
// same jti cannot both see FirstUse: the claim is one SET NX round trip,
// not a read followed by a write.
func (t *Tracker) TryConsume(ctx context.Context, jti string, ttl time.Duration) (Outcome, error) {
	if jti == "" {
		return AlreadyUsed, errors.New("empty refresh jti")
	}
	if ttl <= 0 {
		ttl = time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	won, err := t.redis.SetNX(ctx, t.key(jti), usedMarker, ttl).Result()
	if err != nil {
		return AlreadyUsed, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !won {
		return AlreadyUsed, nil
	}
	return FirstUse, nil
}
