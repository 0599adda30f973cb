package outbox_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/shared/domain"
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingMoved struct {
	domain.BaseEvent
	BookingID uuid.UUID `json:"booking_id"`
	NewStart  time.Time `json:"new_start"`
}

func newBookingMoved(t *testing.T) *bookingMoved {
	t.Helper()
	id := uuid.New()
	at := time.Date(2025, 12, 24, 9, 0, 0, 0, time.UTC)
	e := &bookingMoved{
		BaseEvent: domain.NewBaseEventAt(id, "Booking", "booking.rescheduled_by_us", at),
		BookingID: id,
		NewStart:  at.AddDate(0, 0, 7),
	}
	e.SetMetadata(domain.EventMetadata{CorrelationID: uuid.New()})
	return e
}

func TestNewMessage(t *testing.T) {
	event := newBookingMoved(t)

	msg, err := outbox.NewMessage(event)
	require.NoError(t, err)

	assert.Equal(t, event.EventID(), msg.EventID)
	assert.Equal(t, event.AggregateID(), msg.AggregateID)
	assert.Equal(t, "Booking", msg.AggregateType)
	assert.Equal(t, "booking.rescheduled_by_us", msg.RoutingKey)
	assert.Equal(t, event.OccurredAt(), msg.CreatedAt)
	assert.False(t, msg.IsPublished())
	assert.JSONEq(t, `{"booking_id":"`+event.BookingID.String()+`","new_start":"2025-12-31T09:00:00Z"}`, string(msg.Payload))
}

func TestMessage_CanRetry(t *testing.T) {
	msg := &outbox.Message{RetryCount: 2}
	assert.True(t, msg.CanRetry(3))
	msg.RetryCount = 3
	assert.False(t, msg.CanRetry(3))
}

func TestMessage_Envelope(t *testing.T) {
	event := newBookingMoved(t)
	msg, err := outbox.NewMessage(event)
	require.NoError(t, err)

	body, err := msg.Envelope()
	require.NoError(t, err)

	var env eventbus.ConsumedEvent
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Equal(t, event.EventID(), env.EventID)
	assert.Equal(t, event.AggregateID(), env.AggregateID)
	assert.Equal(t, "booking.rescheduled_by_us", env.RoutingKey)
	assert.Equal(t, event.Metadata().CorrelationID.String(), env.Metadata.CorrelationID)
	assert.Empty(t, env.Metadata.CausationID)

	var payload struct {
		BookingID uuid.UUID `json:"booking_id"`
	}
	require.NoError(t, env.Decode(&payload))
	assert.Equal(t, event.BookingID, payload.BookingID)
}
