// Package notify delivers auto-cancellation notices to users.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/internal/shared/application"
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// OutboxNotifier enqueues notification.auto_canceled for the notification
// service.
type OutboxNotifier struct {
	outbox outbox.Repository
	clock  func() time.Time
}

// NewOutboxNotifier creates an outbox-backed notifier.
func NewOutboxNotifier(ob outbox.Repository) *OutboxNotifier {
	return &OutboxNotifier{outbox: ob, clock: time.Now}
}

// WithClock overrides the clock used to stamp events.
func (n *OutboxNotifier) WithClock(clock func() time.Time) *OutboxNotifier {
	n.clock = clock
	return n
}

// NotifyAutoCanceled implements domain.Notifier.
func (n *OutboxNotifier) NotifyAutoCanceled(ctx context.Context, booking *domain.Booking, message string) error {
	event := domain.NewAutoCanceledNotification(booking, message, n.clock())
	event.SetMetadata(application.EventMetadataFromContext(ctx, booking.UserID))

	msg, err := outbox.NewMessage(event)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := n.outbox.Save(ctx, msg); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

// Notice is a decoded auto-cancellation notice.
type Notice struct {
	UserID    uuid.UUID `json:"user_id"`
	BookingID uuid.UUID `json:"booking_id"`
	Start     time.Time `json:"start"`
	Message   string    `json:"message"`
}

// Sender delivers a notice to its user.
type Sender interface {
	Send(ctx context.Context, notice Notice) error
}

// LogSender writes notices to the log. It stands in for the delivery channel
// in local setups.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, notice Notice) error {
	s.logger.InfoContext(ctx, "auto-cancel notice",
		"user_id", notice.UserID,
		"booking_id", notice.BookingID,
		"start", notice.Start,
		"message", notice.Message,
	)
	return nil
}

// Consumer hands notification.auto_canceled events to a Sender.
type Consumer struct {
	sender Sender
	logger *slog.Logger
}

// NewConsumer creates a notification consumer.
func NewConsumer(sender Sender, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{sender: sender, logger: logger}
}

// EventTypes implements eventbus.EventConsumer.
func (c *Consumer) EventTypes() []string {
	return []string{domain.RoutingKeyAutoCanceled}
}

// Handle implements eventbus.EventConsumer.
func (c *Consumer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var notice Notice
	if err := event.Decode(&notice); err != nil {
		return fmt.Errorf("decode %s: %w", event.RoutingKey, err)
	}
	if notice.UserID == uuid.Nil {
		notice.UserID = event.Metadata.UserID
	}
	if err := c.sender.Send(ctx, notice); err != nil {
		c.logger.WarnContext(ctx, "notification delivery failed",
			"event_id", event.EventID,
			"booking_id", notice.BookingID,
			"error", err,
		)
		return err
	}
	return nil
}
