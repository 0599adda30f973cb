package persistence

import (
	"context"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/database"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresCancellationRecordRepository stores cancellation records on PostgreSQL.
type PostgresCancellationRecordRepository struct {
	conn database.Connection
}

// NewPostgresCancellationRecordRepository creates a new PostgreSQL cancellation record repository.
func NewPostgresCancellationRecordRepository(conn database.Connection) *PostgresCancellationRecordRepository {
	return &PostgresCancellationRecordRepository{conn: conn}
}

func (r *PostgresCancellationRecordRepository) Save(ctx context.Context, rec domain.CancellationRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	errs := rec.Errors
	if errs == nil {
		errs = []string{}
	}
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`INSERT INTO cancellation_records (`+cancellationColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.BookingID, rec.ReasonID, rec.RefundCents, rec.Tag, rec.Success, pq.Array(errs), rec.CreatedAt.UTC(),
	)
	return err
}

func (r *PostgresCancellationRecordRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.CancellationRecord, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		`SELECT `+cancellationColumns+` FROM cancellation_records WHERE booking_id = $1 ORDER BY created_at`,
		bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.CancellationRecord
	for rows.Next() {
		var (
			rec  domain.CancellationRecord
			errs pq.StringArray
		)
		if err := rows.Scan(&rec.ID, &rec.BookingID, &rec.ReasonID, &rec.RefundCents, &rec.Tag, &rec.Success, &errs, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if len(errs) > 0 {
			rec.Errors = []string(errs)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
