package events

import "time"

// Topic names for the operational event stream.
const (
	TopicAvailability      = "state.availability"
	TopicBreakerTransition = "breaker.transition"
)

// AvailabilityEvent is emitted every time a process flips between the
// shared store and its in-process fallback. Operators use it to see
// which instances are running degraded.
type AvailabilityEvent struct {
	Instance   string    `json:"instance"`
	Available  bool      `json:"available"`
	Mode       string    `json:"mode"`
	Operation  string    `json:"operation,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// BreakerTransitionEvent is emitted when a circuit breaker changes
// state for a protected service.
type BreakerTransitionEvent struct {
	Instance     string    `json:"instance"`
	Service      string    `json:"service"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	FailureCount int       `json:"failureCount"`
	OccurredAt   time.Time `json:"occurredAt"`
}
