package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, ceiling time.Duration) (*Registry, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return NewRegistry(rdb, "", ceiling, 0), mr
}

func makeRecord(userID, sessionID string, createdAt time.Time) *Record {
	return &Record{
		SessionID:      sessionID,
		UserID:         userID,
		Device:         "cli",
		IPAddress:      "10.0.0.1",
		UserAgent:      "test-agent",
		CreatedAt:      createdAt,
		LastActivityAt: createdAt,
	}
}

func TestCreateAndGet(t *testing.T) {
	reg, _ := newTestRegistry(t, time.Hour)
	ctx := context.Background()

	rec := makeRecord("u1", "s1", time.Now())
	require.NoError(t, reg.Create(ctx, rec))

	got, err := reg.Get(ctx, "u1", "s1")
	require.NoError(t, err)
	require.Equal(t, "s1", got.SessionID)
	require.Equal(t, "u1", got.UserID)
	require.Equal(t, "10.0.0.1", got.IPAddress)
	require.Equal(t, "test-agent", got.UserAgent)
}

func TestGetMissing(t *testing.T) {
	reg, _ := newTestRegistry(t, time.Hour)

	_, err := reg.Get(context.Background(), "u1", "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetPastAbsoluteLifetime(t *testing.T) {
	reg, _ := newTestRegistry(t, time.Hour)
	ctx := context.Background()

	// Stored record claims to have been created two hours ago; even though
	// the key still exists, the record is past its ceiling.
	rec := makeRecord("u1", "s1", time.Now().Add(-2*time.Hour))
	require.NoError(t, reg.Create(ctx, rec))

	_, err := reg.Get(ctx, "u1", "s1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTouchUpdatesActivityAndCapsTTL(t *testing.T) {
	reg, mr := newTestRegistry(t, time.Hour)
	ctx := context.Background()

	created := time.Now().Add(-30 * time.Minute)
	rec := makeRecord("u1", "s1", created)
	require.NoError(t, reg.Create(ctx, rec))

	require.NoError(t, reg.Touch(ctx, "u1", "s1"))

	got, err := reg.Get(ctx, "u1", "s1")
	require.NoError(t, err)
	require.True(t, got.LastActivityAt.After(created))

	// The re-armed TTL must not exceed what is left of the absolute
	// lifetime, about thirty minutes here.
	ttl := mr.TTL("session:u1:s1")
	require.Greater(t, ttl, time.Duration(0))
	require.LessOrEqual(t, ttl, 31*time.Minute)
}

func TestTouchMissing(t *testing.T) {
	reg, _ := newTestRegistry(t, time.Hour)

	err := reg.Touch(context.Background(), "u1", "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	reg, _ := newTestRegistry(t, time.Hour)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, reg.Create(ctx, makeRecord("u1", "old", now.Add(-10*time.Minute))))
	require.NoError(t, reg.Create(ctx, makeRecord("u1", "mid", now.Add(-5*time.Minute))))
	require.NoError(t, reg.Create(ctx, makeRecord("u1", "new", now)))

	records, err := reg.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "new", records[0].SessionID)
	require.Equal(t, "mid", records[1].SessionID)
	require.Equal(t, "old", records[2].SessionID)
}

func TestListPrunesExpiredEntries(t *testing.T) {
	reg, mr := newTestRegistry(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, reg.Create(ctx, makeRecord("u1", "live", time.Now())))
	require.NoError(t, reg.Create(ctx, makeRecord("u1", "dead", time.Now())))

	// Simulate the record key expiring while its index entry lingers.
	mr.Del("session:u1:dead")

	records, err := reg.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "live", records[0].SessionID)
}

func TestListEmpty(t *testing.T) {
	reg, _ := newTestRegistry(t, time.Hour)

	records, err := reg.List(context.Background(), "nobody")
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestRemove(t *testing.T) {
	reg, _ := newTestRegistry(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, reg.Create(ctx, makeRecord("u1", "s1", time.Now())))
	require.NoError(t, reg.Create(ctx, makeRecord("u1", "s2", time.Now())))

	require.NoError(t, reg.Remove(ctx, "u1", "s1"))

	_, err := reg.Get(ctx, "u1", "s1")
	require.ErrorIs(t, err, ErrNotFound)

	records, err := reg.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, records, 1)

	// Removing an absent session is fine.
	require.NoError(t, reg.Remove(ctx, "u1", "s1"))
}

func TestRemoveAll(t *testing.T) {
	reg, _ := newTestRegistry(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, reg.Create(ctx, makeRecord("u1", "s1", time.Now())))
	require.NoError(t, reg.Create(ctx, makeRecord("u1", "s2", time.Now())))
	require.NoError(t, reg.Create(ctx, makeRecord("u2", "s3", time.Now())))

	removed, err := reg.RemoveAll(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	records, err := reg.List(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, records)

	// Other users' sessions are untouched.
	records, err = reg.List(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, records, 1)

	removed, err = reg.RemoveAll(ctx, "u1")
	require.NoError(t, err)
	require.Zero(t, removed)
}

func TestRecordsExpireWithStore(t *testing.T) {
	reg, mr := newTestRegistry(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, reg.Create(ctx, makeRecord("u1", "s1", time.Now())))

	mr.FastForward(2 * time.Minute)

	_, err := reg.Get(ctx, "u1", "s1")
	require.ErrorIs(t, err, ErrNotFound)
}
