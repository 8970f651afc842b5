// Package history persists operational transition events so operators
// can reconstruct when instances degraded to memory mode and when
// circuit breakers opened. It stores operational telemetry only, never
// business data.
package history

import (
	"context"

	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/events"
)

// Store defines the interface for persisting transition events.
type Store interface {
	SaveAvailability(ctx context.Context, event *events.AvailabilityEvent) error
	SaveBreakerTransition(ctx context.Context, event *events.BreakerTransitionEvent) error
}
