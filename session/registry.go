// Package session tracks active sessions: one record per issued access
// token, keyed by (user, jti), carrying device and address metadata and a
// last-activity timestamp. Records live at most as long as the access
// token that created them; touching a session refreshes its TTL but never
// past that ceiling.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrStoreUnavailable indicates the session store could not be reached.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrNotFound indicates the session does not exist or has expired.
	ErrNotFound = errors.New("session not found")
)

// Record is one active session. SessionID always equals the jti of the
// access token it belongs to; revoking one without the other is a
// consistency bug, which is why only the orchestrator composes the two.
type Record struct {
	SessionID      string    `json:"sessionId"`
	UserID         string    `json:"userId"`
	Device         string    `json:"device"`
	IPAddress      string    `json:"ipAddress"`
	UserAgent      string    `json:"userAgent"`
	CreatedAt      time.Time `json:"createdAt"`
	LastActivityAt time.Time `json:"lastActivity"`
}

// Registry is the Redis-backed session store. A per-user SET indexes the
// live session ids so enumeration never scans the keyspace.
type Registry struct {
	redis   redis.UniversalClient
	prefix  string
	ceiling time.Duration
	timeout time.Duration
}

// NewRegistry creates a Registry. ceiling is the absolute session
// lifetime (the access-token TTL); timeout bounds each store round trip.
func NewRegistry(client redis.UniversalClient, prefix string, ceiling, timeout time.Duration) *Registry {
	if prefix == "" {
		prefix = "session"
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Registry{redis: client, prefix: prefix, ceiling: ceiling, timeout: timeout}
}

func (r *Registry) key(userID, sessionID string) string {
	return r.prefix + ":" + userID + ":" + sessionID
}

func (r *Registry) indexKey(userID string) string {
	return r.prefix + ":idx:" + userID
}

func (r *Registry) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// Create persists a new session record with the full ceiling as its TTL
// and adds it to the user's index.
func (r *Registry) Create(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	_, err = r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(rec.UserID, rec.SessionID), data, r.ceiling)
		pipe.SAdd(ctx, r.indexKey(rec.UserID), rec.SessionID)
		pipe.Expire(ctx, r.indexKey(rec.UserID), r.ceiling)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Get returns the session record, or ErrNotFound when absent or past its
// absolute lifetime.
func (r *Registry) Get(ctx context.Context, userID, sessionID string) (*Record, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	data, err := r.redis.Get(ctx, r.key(userID, sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	rec, err := decodeRecord(data, sessionID)
	if err != nil {
		return nil, err
	}

	if remaining := r.remaining(rec, time.Now()); remaining <= 0 {
		_ = r.Remove(ctx, userID, sessionID)
		return nil, ErrNotFound
	}
	return rec, nil
}

// Touch updates last-activity and re-arms the TTL, capped at the
// remaining absolute lifetime so a busy session still dies with its
// access token.
func (r *Registry) Touch(ctx context.Context, userID, sessionID string) error {
	rec, err := r.Get(ctx, userID, sessionID)
	if err != nil {
		return err
	}

	now := time.Now()
	remaining := r.remaining(rec, now)
	if remaining <= 0 {
		return ErrNotFound
	}
	rec.LastActivityAt = now

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	if err := r.redis.Set(ctx, r.key(userID, sessionID), data, remaining).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// List returns all live sessions for the user, newest first. Index
// entries whose record has expired are pruned as a side effect.
func (r *Registry) List(ctx context.Context, userID string) ([]*Record, error) {
	opCtx, cancel := r.opCtx(ctx)
	defer cancel()

	ids, err := r.redis.SMembers(opCtx, r.indexKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*Record{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(ids) == 0 {
		return []*Record{}, nil
	}

	pipe := r.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(opCtx, r.key(userID, id))
	}
	if _, err := pipe.Exec(opCtx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	now := time.Now()
	records := make([]*Record, 0, len(ids))
	var stale []interface{}
	for i, cmd := range cmds {
		data, cmdErr := cmd.Bytes()
		if cmdErr != nil {
			if errors.Is(cmdErr, redis.Nil) {
				stale = append(stale, ids[i])
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, cmdErr)
		}

		rec, decErr := decodeRecord(data, ids[i])
		if decErr != nil {
			return nil, decErr
		}
		if r.remaining(rec, now) <= 0 {
			stale = append(stale, ids[i])
			continue
		}
		records = append(records, rec)
	}

	if len(stale) > 0 {
		_ = r.redis.SRem(opCtx, r.indexKey(userID), stale...).Err()
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// Remove deletes one session and its index entry. Removing an absent
// session is not an error.
func (r *Registry) Remove(ctx context.Context, userID, sessionID string) error {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key(userID, sessionID))
		pipe.SRem(ctx, r.indexKey(userID), sessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// RemoveAll deletes every session for the user and returns how many
// records actually existed.
func (r *Registry) RemoveAll(ctx context.Context, userID string) (int, error) {
	opCtx, cancel := r.opCtx(ctx)
	defer cancel()

	ids, err := r.redis.SMembers(opCtx, r.indexKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, r.key(userID, id))
	}

	var delCmd *redis.IntCmd
	_, err = r.redis.TxPipelined(opCtx, func(pipe redis.Pipeliner) error {
		if len(keys) > 0 {
			delCmd = pipe.Del(opCtx, keys...)
		}
		pipe.Del(opCtx, r.indexKey(userID))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if delCmd == nil {
		return 0, nil
	}
	return int(delCmd.Val()), nil
}

func (r *Registry) remaining(rec *Record, now time.Time) time.Duration {
	return rec.CreatedAt.Add(r.ceiling).Sub(now)
}

func decodeRecord(data []byte, sessionID string) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("corrupt session record %s: %w", sessionID, err)
	}
	rec.SessionID = sessionID
	return &rec, nil
}
