package events

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/messaging"
)

// Publisher publishes operational events. Publishing is best-effort:
// callers log failures and carry on, it never affects the result of a
// state, rate-limit, or breaker operation.
type Publisher struct {
	transport         message.Publisher
	availability      messaging.Publish[AvailabilityEvent]
	breakerTransition messaging.Publish[BreakerTransitionEvent]
}

// NewPublisher creates a publisher over the given transport.
func NewPublisher(transport message.Publisher) *Publisher {
	return &Publisher{
		transport:         transport,
		availability:      messaging.NewPublishFunc[AvailabilityEvent](transport, TopicAvailability),
		breakerTransition: messaging.NewPublishFunc[BreakerTransitionEvent](transport, TopicBreakerTransition),
	}
}

// PublishAvailability publishes an availability transition.
func (p *Publisher) PublishAvailability(event *AvailabilityEvent) error {
	return p.availability(event)
}

// PublishBreakerTransition publishes a breaker state change.
func (p *Publisher) PublishBreakerTransition(event *BreakerTransitionEvent) error {
	return p.breakerTransition(event)
}

// Shutdown closes the underlying transport.
func (p *Publisher) Shutdown() error {
	return p.transport.Close()
}
