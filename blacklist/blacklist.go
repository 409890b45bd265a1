// Package blacklist is the revocation list: a TTL-bounded set of token
// identifiers that must no longer be trusted even though their signatures
// still verify. Entries are sized to the remaining life of the token they
// revoke, so the list can never grow past the set of live tokens.
package blacklist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable indicates the revocation store could not be reached.
var ErrStoreUnavailable = errors.New("revocation store unavailable")

const revokedMarker = "revoked"

// List is a Redis-backed revocation list keyed by jti.
type List struct {
	redis   redis.UniversalClient
	prefix  string
	timeout time.Duration
}

// New creates a List. prefix namespaces the keys; timeout bounds every
// store round trip independently of the request deadline.
func New(client redis.UniversalClient, prefix string, timeout time.Duration) *List {
	if prefix == "" {
		prefix = "token:blacklist"
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &List{redis: client, prefix: prefix, timeout: timeout}
}

func (l *List) key(jti string) string {
	return l.prefix + ":" + jti
}

// Revoke marks jti revoked for ttl. Revocation is monotonic: re-revoking
// an entry only ever extends it. A non-positive ttl is a no-op because
// the token is already past its natural expiry.
func (l *List) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := l.redis.Set(ctx, l.key(jti), revokedMarker, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether jti is on the list. It is a pure lookup; the
// caller owns the fail-open/fail-closed decision when it returns
// ErrStoreUnavailable.
func (l *List) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	n, err := l.redis.Exists(ctx, l.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n > 0, nil
}
