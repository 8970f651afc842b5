package ratelimit_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/ratelimit"
	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errStoreDown = errors.New("store down")

// brokenStore fails every operation, simulating the case where both
// the shared store and the fallback handling failed.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errStoreDown
}
func (brokenStore) Set(context.Context, string, string, time.Duration) error  { return errStoreDown }
func (brokenStore) Del(context.Context, string) error                         { return errStoreDown }
func (brokenStore) Incr(context.Context, string) (int64, error)               { return 0, errStoreDown }
func (brokenStore) Expire(context.Context, string, time.Duration) error       { return errStoreDown }
func (brokenStore) TTL(context.Context, string) (time.Duration, error)        { return 0, errStoreDown }
func (brokenStore) Exists(context.Context, string) (bool, error)              { return false, errStoreDown }
func (brokenStore) Pipeline(context.Context, []state.Command) ([]state.CommandResult, error) {
	return nil, errStoreDown
}

func newTestLimiter(clock state.Clock) (*ratelimit.Limiter, *state.MemoryStore) {
	store := state.NewMemoryStoreWithClock(clock)

	return ratelimit.NewLimiter(store, clock, zap.NewNop()), store
}

func TestLimiter_Check(t *testing.T) {
	t.Run("allows up to the limit and denies beyond it", func(t *testing.T) {
		clock := state.NewManualClock(time.Unix(1000, 0))
		limiter, _ := newTestLimiter(clock)

		for i := range 3 {
			result := limiter.Check(context.Background(), "x", 3, time.Minute)

			assert.True(t, result.Allowed, "request %d should be allowed", i+1)
			assert.Equal(t, int64(2-i), result.Remaining)
		}

		result := limiter.Check(context.Background(), "x", 3, time.Minute)

		assert.False(t, result.Allowed)
		assert.Equal(t, int64(0), result.Remaining)
	})

	t.Run("a new window resets the counter", func(t *testing.T) {
		clock := state.NewManualClock(time.Unix(1000, 0))
		limiter, _ := newTestLimiter(clock)

		for range 4 {
			_ = limiter.Check(context.Background(), "x", 3, time.Minute)
		}

		clock.Advance(time.Minute)

		result := limiter.Check(context.Background(), "x", 3, time.Minute)

		assert.True(t, result.Allowed, "next window should start a fresh counter")
		assert.Equal(t, int64(2), result.Remaining)
	})

	t.Run("resetAt is the deterministic window boundary", func(t *testing.T) {
		// 1000s into the epoch, 60s windows: current window ends at 1020
		clock := state.NewManualClock(time.Unix(1000, 0))
		limiter, _ := newTestLimiter(clock)

		first := limiter.Check(context.Background(), "x", 10, time.Minute)

		clock.Advance(7 * time.Second)

		second := limiter.Check(context.Background(), "x", 10, time.Minute)

		assert.Equal(t, first.ResetAt, second.ResetAt,
			"calls in the same window must return identical resetAt")
		assert.Equal(t, time.Unix(1020, 0), first.ResetAt)
	})

	t.Run("window key expires at the window length", func(t *testing.T) {
		clock := state.NewManualClock(time.Unix(1000, 0))
		limiter, store := newTestLimiter(clock)

		_ = limiter.Check(context.Background(), "x", 3, time.Minute)

		bucket := clock.Now().Unix() / 60
		ttl, err := store.TTL(context.Background(), "x:"+strconv.FormatInt(bucket, 10))

		require.NoError(t, err)
		assert.Equal(t, time.Minute, ttl)

		// Subsequent checks must not push the expiry back
		clock.Advance(10 * time.Second)
		_ = limiter.Check(context.Background(), "x", 3, time.Minute)

		ttl, err = store.TTL(context.Background(), "x:"+strconv.FormatInt(bucket, 10))

		require.NoError(t, err)
		assert.Equal(t, 50*time.Second, ttl)
	})

	t.Run("tracks keys independently", func(t *testing.T) {
		clock := state.NewManualClock(time.Unix(1000, 0))
		limiter, _ := newTestLimiter(clock)

		for range 3 {
			_ = limiter.Check(context.Background(), "a", 2, time.Minute)
		}

		result := limiter.Check(context.Background(), "b", 2, time.Minute)

		assert.True(t, result.Allowed)
		assert.Equal(t, int64(1), result.Remaining)
	})

	t.Run("fails open when the store is broken", func(t *testing.T) {
		clock := state.NewManualClock(time.Unix(1000, 0))
		limiter := ratelimit.NewLimiter(brokenStore{}, clock, zap.NewNop())

		result := limiter.Check(context.Background(), "x", 3, time.Minute)

		assert.True(t, result.Allowed, "storage failure must not block traffic")
		assert.Equal(t, int64(3), result.Remaining)
		assert.Equal(t, time.Unix(1020, 0), result.ResetAt)
	})
}

func TestLimiter_Reset(t *testing.T) {
	clock := state.NewManualClock(time.Unix(1000, 0))
	limiter, _ := newTestLimiter(clock)

	for range 3 {
		_ = limiter.Check(context.Background(), "x", 3, time.Minute)
	}

	result := limiter.Check(context.Background(), "x", 3, time.Minute)
	require.False(t, result.Allowed)

	require.NoError(t, limiter.Reset(context.Background(), "x", time.Minute))

	result = limiter.Check(context.Background(), "x", 3, time.Minute)

	assert.True(t, result.Allowed)
	assert.Equal(t, int64(2), result.Remaining)
}

func TestLimiter_OverUnconfiguredFacade(t *testing.T) {
	facade := state.NewFacade(state.Config{Instance: "bare"}, zap.NewNop())

	t.Cleanup(func() { _ = facade.Shutdown() })

	limiter := ratelimit.NewLimiter(facade, state.NewManualClock(time.Unix(1000, 0)), zap.NewNop())

	first := limiter.Check(context.Background(), "a", 1, 10*time.Second)
	second := limiter.Check(context.Background(), "a", 1, 10*time.Second)

	assert.True(t, first.Allowed)
	assert.False(t, second.Allowed)
	assert.Equal(t, first.ResetAt, second.ResetAt)
}
