package history

import (
	"context"

	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/events"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a PostgreSQL implementation of Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed history store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) SaveAvailability(ctx context.Context, event *events.AvailabilityEvent) error {
	query := `
		INSERT INTO state_availability_events
			(id, instance, available, mode, operation, reason, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := p.pool.Exec(ctx, query,
		uuid.New(),
		event.Instance,
		event.Available,
		event.Mode,
		event.Operation,
		event.Reason,
		event.OccurredAt,
	)

	return err
}

func (p *PostgresStore) SaveBreakerTransition(ctx context.Context, event *events.BreakerTransitionEvent) error {
	query := `
		INSERT INTO breaker_transition_events
			(id, instance, service, from_status, to_status, failure_count, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := p.pool.Exec(ctx, query,
		uuid.New(),
		event.Instance,
		event.Service,
		event.From,
		event.To,
		event.FailureCount,
		event.OccurredAt,
	)

	return err
}

// Compile-time check.
var _ Store = (*PostgresStore)(nil)
