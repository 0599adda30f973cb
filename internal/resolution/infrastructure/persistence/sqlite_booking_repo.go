package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const bookingColumns = `id, user_id, region_id, service_id, start_at, status, provider_id,
	price_cents, reschedule_attempts, max_attempts, series_id, series_position,
	recommended_providers, cancel_tag, created_at, updated_at`

// SQLiteBookingRepository implements domain.BookingRepository using SQLite.
type SQLiteBookingRepository struct {
	conn database.Connection
}

// NewSQLiteBookingRepository creates a new SQLite booking repository.
func NewSQLiteBookingRepository(conn database.Connection) *SQLiteBookingRepository {
	return &SQLiteBookingRepository{conn: conn}
}

// Save upserts the booking.
func (r *SQLiteBookingRepository) Save(ctx context.Context, b *domain.Booking) error {
	providers, err := encodeJSONList(b.RecommendedProviders)
	if err != nil {
		return err
	}
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	_, err = database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			user_id = excluded.user_id,
			region_id = excluded.region_id,
			service_id = excluded.service_id,
			start_at = excluded.start_at,
			status = excluded.status,
			provider_id = excluded.provider_id,
			price_cents = excluded.price_cents,
			reschedule_attempts = excluded.reschedule_attempts,
			max_attempts = excluded.max_attempts,
			series_id = excluded.series_id,
			series_position = excluded.series_position,
			recommended_providers = excluded.recommended_providers,
			cancel_tag = excluded.cancel_tag,
			updated_at = excluded.updated_at`,
		b.ID.String(), b.UserID.String(), b.RegionID, b.ServiceID,
		database.FormatTextTime(b.Start), string(b.Status), nullUUID(b.ProviderID),
		b.PriceCents, b.RescheduleAttempts, nullInt(b.MaxAttempts), nullUUID(b.SeriesID), b.SeriesPosition,
		providers, b.CancelTag, database.FormatTextTime(b.CreatedAt), database.FormatTextTime(b.UpdatedAt),
	)
	return err
}

// FindByID returns domain.ErrBookingNotFound when missing.
func (r *SQLiteBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id.String())
	b, err := scanSQLiteBooking(row)
	if database.IsNoRows(err) {
		return nil, domain.ErrBookingNotFound
	}
	return b, err
}

// FindUnfilledInWindow returns confirmed bookings without a provider in the
// regions, starting in [from, to), earliest first.
func (r *SQLiteBookingRepository) FindUnfilledInWindow(ctx context.Context, regionIDs []string, from, to time.Time) ([]*domain.Booking, error) {
	if len(regionIDs) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(regionIDs)+3)
	args = append(args, string(domain.BookingStatusConfirmed), database.FormatTextTime(from), database.FormatTextTime(to))
	for _, id := range regionIDs {
		args = append(args, id)
	}
	return r.list(ctx, fmt.Sprintf(`
		SELECT `+bookingColumns+` FROM bookings
		WHERE status = ? AND provider_id IS NULL
		  AND start_at >= ? AND start_at < ?
		  AND region_id IN (%s)
		ORDER BY start_at, id`, sqlitePlaceholders(len(regionIDs))), args...)
}

// FindBySeries returns every booking of a recurring series in position order.
func (r *SQLiteBookingRepository) FindBySeries(ctx context.Context, seriesID uuid.UUID) ([]*domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE series_id = ? ORDER BY series_position, start_at`,
		seriesID.String())
}

func (r *SQLiteBookingRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		b, err := scanSQLiteBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func scanSQLiteBooking(row database.Row) (*domain.Booking, error) {
	var (
		b                           domain.Booking
		id, userID, startAt, status string
		createdAt, updatedAt        string
		providerID, seriesID        sql.NullString
		maxAttempts                 sql.NullInt64
		providers                   string
	)
	if err := row.Scan(
		&id, &userID, &b.RegionID, &b.ServiceID, &startAt, &status, &providerID,
		&b.PriceCents, &b.RescheduleAttempts, &maxAttempts, &seriesID, &b.SeriesPosition,
		&providers, &b.CancelTag, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if b.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if b.UserID, err = uuid.Parse(userID); err != nil {
		return nil, err
	}
	if b.Start, err = database.ParseTextTime(startAt); err != nil {
		return nil, err
	}
	if b.CreatedAt, err = database.ParseTextTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = database.ParseTextTime(updatedAt); err != nil {
		return nil, err
	}
	if b.ProviderID, err = parseNullUUID(providerID); err != nil {
		return nil, err
	}
	if b.SeriesID, err = parseNullUUID(seriesID); err != nil {
		return nil, err
	}
	if b.RecommendedProviders, err = decodeJSONList[uuid.UUID](providers); err != nil {
		return nil, err
	}
	b.Status = domain.BookingStatus(status)
	b.MaxAttempts = intPtr(maxAttempts)
	return &b, nil
}
