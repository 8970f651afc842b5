package history

import (
	"context"

	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/events"
	"go.uber.org/zap"
)

// NoopStore is a no-op implementation of Store that logs events. It is
// used when no history database is configured.
type NoopStore struct {
	logger *zap.Logger
}

// NewNoopStore creates a new no-op history store.
func NewNoopStore(logger *zap.Logger) *NoopStore {
	return &NoopStore{logger: logger}
}

func (n *NoopStore) SaveAvailability(_ context.Context, event *events.AvailabilityEvent) error {
	n.logger.Info("availability event received",
		zap.String("instance", event.Instance),
		zap.Bool("available", event.Available),
		zap.String("mode", event.Mode),
		zap.String("operation", event.Operation),
		zap.Time("occurredAt", event.OccurredAt),
	)

	return nil
}

func (n *NoopStore) SaveBreakerTransition(_ context.Context, event *events.BreakerTransitionEvent) error {
	n.logger.Info("breaker transition event received",
		zap.String("instance", event.Instance),
		zap.String("service", event.Service),
		zap.String("from", event.From),
		zap.String("to", event.To),
		zap.Int("failureCount", event.FailureCount),
		zap.Time("occurredAt", event.OccurredAt),
	)

	return nil
}

// Compile-time check.
var _ Store = (*NoopStore)(nil)
