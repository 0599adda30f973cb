package outbox

import (
	"context"
	"time"
)

// Repository persists outbox messages. Save joins the unit of work on ctx so a
// message commits with the state change that produced it.
type Repository interface {
	Save(ctx context.Context, msg *Message) error
	// GetUnpublished returns pending messages whose retry time has come, oldest first.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)
	MarkPublished(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, err string, nextRetryAt time.Time) error
	MarkDead(ctx context.Context, id int64, reason string) error
	// CountPending counts messages neither published nor dead-lettered.
	CountPending(ctx context.Context) (int, error)
	// DeleteOld removes published messages older than the retention period.
	DeleteOld(ctx context.Context, olderThanDays int) (int64, error)
}
