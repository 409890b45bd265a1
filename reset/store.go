// Package reset stores single-use password-reset tokens. A token is an
// unguessable uuid handed to the account owner out of band; redeeming it
// is a single GETDEL round trip, so it can never be consumed twice.
package reset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrStoreUnavailable indicates the reset store could not be reached.
	ErrStoreUnavailable = errors.New("reset store unavailable")
	// ErrNotFound indicates the token is unknown, expired, or already used.
	ErrNotFound = errors.New("reset token not found")
)

// Record ties a reset token to the account it can reset.
type Record struct {
	UserID   string    `json:"userId"`
	IssuedAt time.Time `json:"issuedAt"`
}

// Store is the Redis-backed reset-token store.
type Store struct {
	redis   redis.UniversalClient
	prefix  string
	timeout time.Duration
}

// NewStore creates a Store. timeout bounds each store round trip.
func NewStore(client redis.UniversalClient, prefix string, timeout time.Duration) *Store {
	if prefix == "" {
		prefix = "reset:token"
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Store{redis: client, prefix: prefix, timeout: timeout}
}

func (s *Store) key(token string) string {
	return s.prefix + ":" + token
}

// Issue creates a fresh reset token for userID, valid for ttl.
func (s *Store) Issue(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = time.Hour
	}

	record := Record{UserID: userID, IssuedAt: time.Now()}
	data, err := json.Marshal(record)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	token := uuid.NewString()
	if err := s.redis.Set(ctx, s.key(token), data, ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return token, nil
}

// Consume redeems the token, deleting it in the same round trip.
func (s *Store) Consume(ctx context.Context, token string) (*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.redis.GetDel(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("corrupt reset record: %w", err)
	}
	return &record, nil
}
