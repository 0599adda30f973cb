package eventbus_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConsumer struct {
	patterns []string
	events   []*eventbus.ConsumedEvent
	err      error
}

func (c *recordingConsumer) EventTypes() []string { return c.patterns }

func (c *recordingConsumer) Handle(_ context.Context, event *eventbus.ConsumedEvent) error {
	c.events = append(c.events, event)
	return c.err
}

func TestMatchTopic(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"booking.canceled_by_us", "booking.canceled_by_us", true},
		{"booking.canceled_by_us", "booking.rescheduled_by_us", false},
		{"booking.*", "booking.rescheduled_by_us", true},
		{"booking.*", "booking", false},
		{"booking.*", "booking.a.b", false},
		{"booking.#", "booking", true},
		{"booking.#", "booking.a.b", true},
		{"#", "notification.auto_canceled", true},
		{"#.auto_canceled", "notification.auto_canceled", true},
		{"*.auto_canceled", "a.b.auto_canceled", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"|"+tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, eventbus.MatchTopic(tt.pattern, tt.key))
		})
	}
}

func TestConsumerRegistry_DispatchMatchesPatterns(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(nil)
	exact := &recordingConsumer{patterns: []string{"booking.canceled_by_us"}}
	wildcard := &recordingConsumer{patterns: []string{"booking.*", "booking.#"}}
	other := &recordingConsumer{patterns: []string{"notification.auto_canceled"}}
	registry.Register(exact)
	registry.Register(wildcard)
	registry.Register(other)

	event := &eventbus.ConsumedEvent{EventID: uuid.New(), RoutingKey: "booking.canceled_by_us"}
	require.NoError(t, registry.Dispatch(context.Background(), event))

	assert.Len(t, exact.events, 1)
	assert.Len(t, wildcard.events, 1, "registered twice but delivered once")
	assert.Empty(t, other.events)
	assert.Equal(t, 4, registry.ConsumerCount())
	assert.Equal(t, []string{"booking.#", "booking.*", "booking.canceled_by_us", "notification.auto_canceled"}, registry.Patterns())
}

func TestConsumerRegistry_DispatchJoinsErrors(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(nil)
	boom := errors.New("boom")
	failing := &recordingConsumer{patterns: []string{"booking.*"}, err: boom}
	healthy := &recordingConsumer{patterns: []string{"booking.canceled_by_us"}}
	registry.Register(failing)
	registry.Register(healthy)

	err := registry.Dispatch(context.Background(), &eventbus.ConsumedEvent{RoutingKey: "booking.canceled_by_us"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, healthy.events, 1)
}

func TestInProcessEventBus_Publish(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	consumer := &recordingConsumer{patterns: []string{"notification.auto_canceled"}}
	bus.RegisterConsumer(consumer)

	body, err := json.Marshal(eventbus.ConsumedEvent{
		EventID:       uuid.New(),
		AggregateID:   uuid.New(),
		AggregateType: "Booking",
		OccurredAt:    time.Now(),
		Payload:       json.RawMessage(`{"reason":"no_slot_available"}`),
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), "notification.auto_canceled", body))
	require.Len(t, consumer.events, 1)
	assert.Equal(t, "notification.auto_canceled", consumer.events[0].RoutingKey)

	var payload struct {
		Reason string `json:"reason"`
	}
	require.NoError(t, consumer.events[0].Decode(&payload))
	assert.Equal(t, "no_slot_available", payload.Reason)
}

func TestInProcessEventBus_PublishSurfacesConsumerFailure(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	bus.RegisterConsumer(&recordingConsumer{patterns: []string{"#"}, err: errors.New("down")})

	body, _ := json.Marshal(eventbus.ConsumedEvent{RoutingKey: "booking.rescheduled_by_us"})
	assert.Error(t, bus.Publish(context.Background(), "booking.rescheduled_by_us", body))
}

func TestInProcessEventBus_DropsUndecodableEnvelope(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	consumer := &recordingConsumer{patterns: []string{"#"}}
	bus.RegisterConsumer(consumer)

	assert.NoError(t, bus.Publish(context.Background(), "booking.rescheduled_by_us", []byte("not json")))
	assert.Empty(t, consumer.events)
}

func TestNoopPublisher(t *testing.T) {
	p := eventbus.NewNoopPublisher(nil)
	assert.NoError(t, p.Publish(context.Background(), "x", []byte("{}")))
	assert.NoError(t, p.Close())
}
