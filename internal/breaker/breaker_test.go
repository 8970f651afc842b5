package breaker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/breaker"
	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errStoreDown = errors.New("store down")

// brokenStore fails every operation.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errStoreDown
}
func (brokenStore) Set(context.Context, string, string, time.Duration) error { return errStoreDown }
func (brokenStore) Del(context.Context, string) error                        { return errStoreDown }
func (brokenStore) Incr(context.Context, string) (int64, error)              { return 0, errStoreDown }
func (brokenStore) Expire(context.Context, string, time.Duration) error      { return errStoreDown }
func (brokenStore) TTL(context.Context, string) (time.Duration, error)       { return 0, errStoreDown }
func (brokenStore) Exists(context.Context, string) (bool, error)             { return false, errStoreDown }
func (brokenStore) Pipeline(context.Context, []state.Command) ([]state.CommandResult, error) {
	return nil, errStoreDown
}

func newTestBreaker(clock state.Clock, onTransition breaker.TransitionFunc) (*breaker.Breaker, *state.MemoryStore) {
	store := state.NewMemoryStoreWithClock(clock)

	return breaker.New(store, clock, zap.NewNop(), onTransition), store
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	clock := state.NewManualClock(time.Unix(1000, 0))
	b, _ := newTestBreaker(clock, nil)

	result := b.RecordFailure(context.Background(), "svc", 3, time.Second)
	assert.False(t, result.Open)
	assert.Equal(t, 1, result.FailureCount)
	assert.False(t, b.IsOpen(context.Background(), "svc"))

	result = b.RecordFailure(context.Background(), "svc", 3, time.Second)
	assert.False(t, result.Open)
	assert.Equal(t, 2, result.FailureCount)

	result = b.RecordFailure(context.Background(), "svc", 3, time.Second)
	assert.True(t, result.Open, "third failure should open the circuit")
	assert.Equal(t, 3, result.FailureCount)

	assert.True(t, b.IsOpen(context.Background(), "svc"))
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	clock := state.NewManualClock(time.Unix(1000, 0))
	b, _ := newTestBreaker(clock, nil)

	for range 3 {
		b.RecordFailure(context.Background(), "svc", 3, 100*time.Millisecond)
	}

	require.True(t, b.IsOpen(context.Background(), "svc"))

	clock.Advance(150 * time.Millisecond)

	// Half-open: the probe is allowed through without mutating the record
	assert.False(t, b.IsOpen(context.Background(), "svc"))

	st, err := b.GetState(context.Background(), "svc")

	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, 3, st.FailureCount, "reading half-open must not mutate the record")
	assert.True(t, st.Open)
	assert.Equal(t, breaker.StatusHalfOpen, st.StatusAt(clock.Now()))
}

func TestBreaker_ProbeSuccessCloses(t *testing.T) {
	clock := state.NewManualClock(time.Unix(1000, 0))
	b, _ := newTestBreaker(clock, nil)

	for range 3 {
		b.RecordFailure(context.Background(), "svc", 3, 100*time.Millisecond)
	}

	clock.Advance(150 * time.Millisecond)
	b.RecordSuccess(context.Background(), "svc")

	assert.False(t, b.IsOpen(context.Background(), "svc"))

	st, err := b.GetState(context.Background(), "svc")

	require.NoError(t, err)
	require.NotNil(t, st)
	assert.False(t, st.Open)
	assert.Equal(t, 0, st.FailureCount, "success must fully reset the record")

	// A fresh failure sequence needs the full threshold again
	result := b.RecordFailure(context.Background(), "svc", 3, time.Second)
	assert.False(t, result.Open)
	assert.Equal(t, 1, result.FailureCount)
}

func TestBreaker_ProbeFailureReopens(t *testing.T) {
	clock := state.NewManualClock(time.Unix(1000, 0))
	b, _ := newTestBreaker(clock, nil)

	for range 3 {
		b.RecordFailure(context.Background(), "svc", 3, 100*time.Millisecond)
	}

	clock.Advance(150 * time.Millisecond)
	require.False(t, b.IsOpen(context.Background(), "svc"), "probe should be allowed")

	// The probe failed: count continues from the existing record and
	// the circuit re-opens immediately with a fresh timeout.
	result := b.RecordFailure(context.Background(), "svc", 3, 100*time.Millisecond)

	assert.True(t, result.Open)
	assert.Equal(t, 4, result.FailureCount)
	assert.True(t, b.IsOpen(context.Background(), "svc"))
}

func TestBreaker_AbsentRecordReadsClosed(t *testing.T) {
	clock := state.NewManualClock(time.Unix(1000, 0))
	b, _ := newTestBreaker(clock, nil)

	assert.False(t, b.IsOpen(context.Background(), "never-seen"))

	st, err := b.GetState(context.Background(), "never-seen")

	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestBreaker_RecordExpires(t *testing.T) {
	clock := state.NewManualClock(time.Unix(1000, 0))
	b, store := newTestBreaker(clock, nil)

	b.RecordFailure(context.Background(), "svc", 3, time.Second)

	ttl, err := store.TTL(context.Background(), "breaker:svc")

	require.NoError(t, err)
	assert.Equal(t, breaker.StateTTL, ttl, "record must carry a bounded lifetime")

	clock.Advance(breaker.StateTTL + time.Second)

	st, err := b.GetState(context.Background(), "svc")

	require.NoError(t, err)
	assert.Nil(t, st, "an untouched record must age out")
}

func TestBreaker_FailsOpenOnStorageError(t *testing.T) {
	clock := state.NewManualClock(time.Unix(1000, 0))
	b := breaker.New(brokenStore{}, clock, zap.NewNop(), nil)

	assert.False(t, b.IsOpen(context.Background(), "svc"),
		"storage failure must read as closed, never as an error")

	// Recording still reports a best-effort result
	result := b.RecordFailure(context.Background(), "svc", 3, time.Second)
	assert.Equal(t, 1, result.FailureCount)
}

func TestBreaker_Transitions(t *testing.T) {
	type transition struct {
		from, to     breaker.Status
		failureCount int
	}

	clock := state.NewManualClock(time.Unix(1000, 0))

	var transitions []transition

	b, _ := newTestBreaker(clock, func(_ string, from, to breaker.Status, failureCount int) {
		transitions = append(transitions, transition{from: from, to: to, failureCount: failureCount})
	})

	for range 3 {
		b.RecordFailure(context.Background(), "svc", 3, 100*time.Millisecond)
	}

	require.Len(t, transitions, 1, "only the opening failure should notify")
	assert.Equal(t, breaker.StatusClosed, transitions[0].from)
	assert.Equal(t, breaker.StatusOpen, transitions[0].to)
	assert.Equal(t, 3, transitions[0].failureCount)

	clock.Advance(150 * time.Millisecond)
	b.RecordSuccess(context.Background(), "svc")

	require.Len(t, transitions, 2)
	assert.Equal(t, breaker.StatusHalfOpen, transitions[1].from)
	assert.Equal(t, breaker.StatusClosed, transitions[1].to)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "closed", breaker.StatusClosed.String())
	assert.Equal(t, "open", breaker.StatusOpen.String())
	assert.Equal(t, "half-open", breaker.StatusHalfOpen.String())
}
