package history

import (
	"context"

	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/events"
	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/messaging"
)

// NewAvailabilityHandler returns a consumer handler that persists
// availability transitions.
func NewAvailabilityHandler(store Store) messaging.Handler[events.AvailabilityEvent] {
	return func(ctx context.Context, event *events.AvailabilityEvent) error {
		return store.SaveAvailability(ctx, event)
	}
}

// NewBreakerTransitionHandler returns a consumer handler that persists
// breaker transitions.
func NewBreakerTransitionHandler(store Store) messaging.Handler[events.BreakerTransitionEvent] {
	return func(ctx context.Context, event *events.BreakerTransitionEvent) error {
		return store.SaveBreakerTransition(ctx, event)
	}
}
