package persistence

import (
	"context"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const cancellationColumns = `id, booking_id, reason_id, refund_cents, tag, success, errors, created_at`

// SQLiteCancellationRecordRepository stores cancellation records on SQLite.
type SQLiteCancellationRecordRepository struct {
	conn database.Connection
}

// NewSQLiteCancellationRecordRepository creates a new SQLite cancellation record repository.
func NewSQLiteCancellationRecordRepository(conn database.Connection) *SQLiteCancellationRecordRepository {
	return &SQLiteCancellationRecordRepository{conn: conn}
}

func (r *SQLiteCancellationRecordRepository) Save(ctx context.Context, rec domain.CancellationRecord) error {
	errs, err := encodeJSONList(rec.Errors)
	if err != nil {
		return err
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err = database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`INSERT INTO cancellation_records (`+cancellationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.BookingID.String(), rec.ReasonID, rec.RefundCents, rec.Tag,
		boolToInt(rec.Success), errs, database.FormatTextTime(rec.CreatedAt),
	)
	return err
}

func (r *SQLiteCancellationRecordRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.CancellationRecord, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		`SELECT `+cancellationColumns+` FROM cancellation_records WHERE booking_id = ? ORDER BY created_at`,
		bookingID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.CancellationRecord
	for rows.Next() {
		var (
			rec                       domain.CancellationRecord
			id, booking, errs, create string
			success                   int
		)
		if err := rows.Scan(&id, &booking, &rec.ReasonID, &rec.RefundCents, &rec.Tag, &success, &errs, &create); err != nil {
			return nil, err
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if rec.BookingID, err = uuid.Parse(booking); err != nil {
			return nil, err
		}
		if rec.CreatedAt, err = database.ParseTextTime(create); err != nil {
			return nil, err
		}
		if rec.Errors, err = decodeJSONList[string](errs); err != nil {
			return nil, err
		}
		rec.Success = success != 0
		records = append(records, rec)
	}
	return records, rows.Err()
}
