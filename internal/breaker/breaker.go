// Package breaker implements a circuit breaker whose state is
// persisted through the state facade, so all processes sharing the
// store see the same breaker while it is reachable and degrade to
// per-process breakers while it is not.
package breaker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/state"
	"go.uber.org/zap"
)

// StateTTL bounds the lifetime of a persisted breaker record so an
// abandoned breaker does not leak permanently. An absent record reads
// as closed with zero failures.
const StateTTL = time.Hour

const keyPrefix = "breaker:"

// Status is the derived circuit state.
type Status int

const (
	StatusClosed Status = iota
	StatusOpen
	StatusHalfOpen
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusClosed:
		return "closed"
	case StatusOpen:
		return "open"
	case StatusHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// State is the persisted record for one protected service. Half-open
// is never stored: it is derived at read time from Open and
// HalfOpenUntil.
type State struct {
	Open          bool       `json:"open"`
	FailureCount  int        `json:"failureCount"`
	LastFailureAt *time.Time `json:"lastFailureAt,omitempty"`
	HalfOpenUntil *time.Time `json:"halfOpenUntil,omitempty"`
}

// StatusAt derives the circuit status at the given instant.
func (s *State) StatusAt(now time.Time) Status {
	if s == nil || !s.Open {
		return StatusClosed
	}

	if s.HalfOpenUntil != nil && !now.Before(*s.HalfOpenUntil) {
		return StatusHalfOpen
	}

	return StatusOpen
}

// Result reports the breaker's position after a recorded failure.
type Result struct {
	Open         bool
	FailureCount int
}

// TransitionFunc observes breaker state changes.
type TransitionFunc func(service string, from, to Status, failureCount int)

// Breaker isolates failing dependencies. It fails open throughout: a
// storage fault is reported as "circuit not open" and never as an
// error, so a broken resilience layer cannot block healthy traffic.
type Breaker struct {
	store        state.Store
	clock        state.Clock
	logger       *zap.Logger
	onTransition TransitionFunc
}

// New creates a breaker over the given store.
func New(store state.Store, clock state.Clock, logger *zap.Logger, onTransition TransitionFunc) *Breaker {
	if clock == nil {
		clock = state.SystemClock()
	}

	return &Breaker{store: store, clock: clock, logger: logger, onTransition: onTransition}
}

// IsOpen reports whether calls to service should be rejected. Once the
// reset timeout has passed, it reports false without mutating the
// stored record, letting exactly the callers that probe through decide
// the next transition via RecordSuccess or RecordFailure.
func (b *Breaker) IsOpen(ctx context.Context, service string) bool {
	st, err := b.GetState(ctx, service)
	if err != nil {
		b.logger.Error("failed to read breaker state, treating circuit as closed",
			zap.String("service", service),
			zap.Error(err))

		return false
	}

	return st.StatusAt(b.clock.Now()) == StatusOpen
}

// RecordFailure increments the failure count for service and opens the
// circuit once the count reaches threshold. A failure recorded while
// half-open re-increments the existing count and re-opens with a fresh
// reset timeout.
func (b *Breaker) RecordFailure(ctx context.Context, service string, threshold int, resetTimeout time.Duration) Result {
	now := b.clock.Now()

	st, err := b.GetState(ctx, service)
	if err != nil {
		b.logger.Error("failed to read breaker state before recording failure",
			zap.String("service", service),
			zap.Error(err))

		st = nil
	}

	prev := st.StatusAt(now)

	next := State{
		FailureCount:  1,
		LastFailureAt: &now,
	}
	if st != nil {
		next.FailureCount = st.FailureCount + 1
	}

	if next.FailureCount >= threshold {
		until := now.Add(resetTimeout)
		next.Open = true
		next.HalfOpenUntil = &until
	}

	b.setState(ctx, service, &next)

	if curr := next.StatusAt(now); curr != prev {
		b.logger.Warn("circuit breaker state changed",
			zap.String("service", service),
			zap.Stringer("from", prev),
			zap.Stringer("to", curr),
			zap.Int("failure_count", next.FailureCount))
		b.notify(service, prev, curr, next.FailureCount)
	}

	return Result{Open: next.Open, FailureCount: next.FailureCount}
}

// RecordSuccess resets service to closed with zero failures. Probes
// allowed through a half-open circuit call this to close it.
func (b *Breaker) RecordSuccess(ctx context.Context, service string) {
	now := b.clock.Now()

	st, err := b.GetState(ctx, service)
	if err != nil {
		b.logger.Error("failed to read breaker state before recording success",
			zap.String("service", service),
			zap.Error(err))

		st = nil
	}

	prev := st.StatusAt(now)

	b.setState(ctx, service, &State{})

	if prev != StatusClosed {
		b.logger.Info("circuit breaker closed",
			zap.String("service", service),
			zap.Stringer("from", prev))
		b.notify(service, prev, StatusClosed, 0)
	}
}

// GetState loads the persisted record for service. A missing record
// returns nil, which reads as closed with zero failures.
func (b *Breaker) GetState(ctx context.Context, service string) (*State, error) {
	raw, found, err := b.store.Get(ctx, keyPrefix+service)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	var st State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, err
	}

	return &st, nil
}

func (b *Breaker) setState(ctx context.Context, service string, st *State) {
	raw, err := json.Marshal(st)
	if err != nil {
		b.logger.Error("failed to encode breaker state",
			zap.String("service", service),
			zap.Error(err))

		return
	}

	if err := b.store.Set(ctx, keyPrefix+service, string(raw), StateTTL); err != nil {
		b.logger.Error("failed to persist breaker state",
			zap.String("service", service),
			zap.Error(err))
	}
}

func (b *Breaker) notify(service string, from, to Status, failureCount int) {
	if b.onTransition != nil {
		b.onTransition(service, from, to, failureCount)
	}
}
