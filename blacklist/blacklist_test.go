package blacklist

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestList(t *testing.T) (*List, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return New(rdb, "", 0), mr
}

func TestRevokeAndCheck(t *testing.T) {
	list, _ := newTestList(t)
	ctx := context.Background()

	revoked, err := list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, "jti-1", time.Hour))

	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)

	revoked, err = list.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRevokedEntryExpires(t *testing.T) {
	list, mr := newTestList(t)
	ctx := context.Background()

	require.NoError(t, list.Revoke(ctx, "jti-1", time.Minute))

	mr.FastForward(2 * time.Minute)

	revoked, err := list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRevokeNoOpInputs(t *testing.T) {
	list, mr := newTestList(t)
	ctx := context.Background()

	require.NoError(t, list.Revoke(ctx, "", time.Hour))
	require.NoError(t, list.Revoke(ctx, "jti-1", 0))
	require.NoError(t, list.Revoke(ctx, "jti-1", -time.Second))
	require.Empty(t, mr.Keys())
}

func TestStoreUnavailable(t *testing.T) {
	list, mr := newTestList(t)
	ctx := context.Background()
	mr.Close()

	err := list.Revoke(ctx, "jti-1", time.Hour)
	require.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = list.IsRevoked(ctx, "jti-1")
	require.ErrorIs(t, err, ErrStoreUnavailable)
}
