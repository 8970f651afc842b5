package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/state"
	"go.uber.org/zap"
)

// Result is the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int64
	ResetAt   time.Time
}

// Limiter is a fixed-window rate limiter over the state facade's
// atomic INCR/EXPIRE primitives.
//
// Fixed windows allow up to twice the limit across a window boundary
// (limit requests at the end of one window plus limit more at the
// start of the next). That imprecision is an accepted trade-off for
// a single counter per window.
type Limiter struct {
	store  state.Store
	clock  state.Clock
	logger *zap.Logger
}

// NewLimiter creates a fixed-window limiter.
func NewLimiter(store state.Store, clock state.Clock, logger *zap.Logger) *Limiter {
	if clock == nil {
		clock = state.SystemClock()
	}

	return &Limiter{store: store, clock: clock, logger: logger}
}

// Check records one request against key and reports whether it fits
// within limit per window. ResetAt is the deterministic end of the
// current window, identical for every call inside it.
//
// Check fails open: if the underlying store errors, the request is
// allowed rather than blocking legitimate traffic on an
// infrastructure fault.
func (l *Limiter) Check(ctx context.Context, key string, limit int64, window time.Duration) Result {
	windowSec := int64(window / time.Second)
	if windowSec < 1 {
		windowSec = 1
	}

	bucket := l.clock.Now().Unix() / windowSec
	windowKey := fmt.Sprintf("%s:%d", key, bucket)
	resetAt := time.Unix((bucket+1)*windowSec, 0)

	count, err := l.store.Incr(ctx, windowKey)
	if err != nil {
		// Both the shared store and the fallback path failed.
		l.logger.Error("rate limit check failed, allowing request",
			zap.String("key", key),
			zap.Error(err))

		return Result{Allowed: true, Remaining: limit, ResetAt: resetAt}
	}

	// Only the call that created the window sets its TTL; setting it
	// on every call would push the expiry back and break the
	// fixed-window property.
	if count == 1 {
		if err := l.store.Expire(ctx, windowKey, time.Duration(windowSec)*time.Second); err != nil {
			l.logger.Error("failed to set rate limit window expiry",
				zap.String("key", key),
				zap.Error(err))
		}
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return Result{Allowed: count <= limit, Remaining: remaining, ResetAt: resetAt}
}

// Reset deletes the current and immediately previous window keys for
// key. It is a best-effort administrative cleanup, not required for
// correctness: windows expire on their own.
func (l *Limiter) Reset(ctx context.Context, key string, window time.Duration) error {
	windowSec := int64(window / time.Second)
	if windowSec < 1 {
		windowSec = 1
	}

	bucket := l.clock.Now().Unix() / windowSec

	_, err := l.store.Pipeline(ctx, []state.Command{
		{Kind: state.CommandDel, Key: fmt.Sprintf("%s:%d", key, bucket)},
		{Kind: state.CommandDel, Key: fmt.Sprintf("%s:%d", key, bucket-1)},
	})

	return err
}
