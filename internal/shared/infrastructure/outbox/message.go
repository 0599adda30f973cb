package outbox

import (
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/shared/domain"
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// Message is a domain event waiting in the outbox.
type Message struct {
	ID               int64
	EventID          uuid.UUID
	AggregateType    string
	AggregateID      uuid.UUID
	EventType        string
	RoutingKey       string
	Payload          json.RawMessage
	Metadata         json.RawMessage
	CreatedAt        time.Time
	PublishedAt      *time.Time
	NextRetryAt      *time.Time
	RetryCount       int
	LastError        *string
	DeadLetteredAt   *time.Time
	DeadLetterReason *string
}

// NewMessage serializes a domain event for the outbox.
func NewMessage(event domain.DomainEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	metadata, err := json.Marshal(event.Metadata())
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:       event.EventID(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		EventType:     event.RoutingKey(),
		RoutingKey:    event.RoutingKey(),
		Payload:       payload,
		Metadata:      metadata,
		CreatedAt:     event.OccurredAt(),
	}, nil
}

// IsPublished reports whether the message reached the broker.
func (m *Message) IsPublished() bool {
	return m.PublishedAt != nil
}

// CanRetry reports whether another publish attempt is allowed.
func (m *Message) CanRetry(maxRetries int) bool {
	return m.RetryCount < maxRetries
}

// Envelope is the body published to the broker. Consumers decode it as an
// eventbus.ConsumedEvent; the event's own fields travel in Payload.
func (m *Message) Envelope() ([]byte, error) {
	env := eventbus.ConsumedEvent{
		EventID:       m.EventID,
		AggregateID:   m.AggregateID,
		AggregateType: m.AggregateType,
		RoutingKey:    m.RoutingKey,
		OccurredAt:    m.CreatedAt,
		Payload:       m.Payload,
	}
	if len(m.Metadata) > 0 {
		var meta domain.EventMetadata
		if err := json.Unmarshal(m.Metadata, &meta); err == nil {
			env.Metadata = eventbus.EventMetadata{UserID: meta.UserID}
			if meta.CorrelationID != uuid.Nil {
				env.Metadata.CorrelationID = meta.CorrelationID.String()
			}
			if meta.CausationID != uuid.Nil {
				env.Metadata.CausationID = meta.CausationID.String()
			}
		}
	}
	return json.Marshal(env)
}
