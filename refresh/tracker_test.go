package refresh

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) (*Tracker, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return NewTracker(rdb, "", 0), mr
}

func TestTryConsumeFirstThenReplay(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	outcome, err := tracker.TryConsume(ctx, "jti-1", time.Hour)
	require.NoError(t, err)
	require.Equal(t, FirstUse, outcome)

	outcome, err = tracker.TryConsume(ctx, "jti-1", time.Hour)
	require.NoError(t, err)
	require.Equal(t, AlreadyUsed, outcome)

	outcome, err = tracker.TryConsume(ctx, "jti-2", time.Hour)
	require.NoError(t, err)
	require.Equal(t, FirstUse, outcome)
}

func TestTryConsumeSingleWinner(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)

	outcomes := make(chan Outcome, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			outcome, err := tracker.TryConsume(ctx, "contested", time.Hour)
			if err != nil {
				t.Errorf("try consume failed: %v", err)
				return
			}
			outcomes <- outcome
		}()
	}
	wg.Wait()
	close(outcomes)

	winners := 0
	for outcome := range outcomes {
		if outcome == FirstUse {
			winners++
		}
	}
	require.Equal(t, 1, winners)
}

func TestMarkerExpires(t *testing.T) {
	tracker, mr := newTestTracker(t)
	ctx := context.Background()

	_, err := tracker.TryConsume(ctx, "jti-1", time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	outcome, err := tracker.TryConsume(ctx, "jti-1", time.Minute)
	require.NoError(t, err)
	require.Equal(t, FirstUse, outcome)
}

func TestEmptyJTIRejected(t *testing.T) {
	tracker, _ := newTestTracker(t)

	_, err := tracker.TryConsume(context.Background(), "", time.Hour)
	require.Error(t, err)
}

func TestStoreUnavailableIsHardFailure(t *testing.T) {
	tracker, mr := newTestTracker(t)
	mr.Close()

	_, err := tracker.TryConsume(context.Background(), "jti-1", time.Hour)
	require.ErrorIs(t, err, ErrStoreUnavailable)
}
