package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_PublishAvailability(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	messages, err := pubSub.Subscribe(context.Background(), events.TopicAvailability)
	require.NoError(t, err)

	publisher := events.NewPublisher(pubSub)

	event := &events.AvailabilityEvent{
		Instance:   "abc123",
		Available:  false,
		Mode:       "shared",
		Operation:  "get",
		Reason:     "dial tcp: connection refused",
		OccurredAt: time.Unix(1000, 0).UTC(),
	}

	require.NoError(t, publisher.PublishAvailability(event))

	select {
	case msg := <-messages:
		var got events.AvailabilityEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, *event, got)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for availability event")
	}
}

func TestPublisher_PublishBreakerTransition(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	messages, err := pubSub.Subscribe(context.Background(), events.TopicBreakerTransition)
	require.NoError(t, err)

	publisher := events.NewPublisher(pubSub)

	event := &events.BreakerTransitionEvent{
		Instance:     "abc123",
		Service:      "payments",
		From:         "closed",
		To:           "open",
		FailureCount: 3,
		OccurredAt:   time.Unix(1000, 0).UTC(),
	}

	require.NoError(t, publisher.PublishBreakerTransition(event))

	select {
	case msg := <-messages:
		var got events.BreakerTransitionEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, *event, got)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for breaker transition event")
	}
}
