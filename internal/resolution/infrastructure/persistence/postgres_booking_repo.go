package persistence

import (
	"context"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/database"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresBookingRepository implements domain.BookingRepository using PostgreSQL.
type PostgresBookingRepository struct {
	conn database.Connection
}

// NewPostgresBookingRepository creates a new PostgreSQL booking repository.
func NewPostgresBookingRepository(conn database.Connection) *PostgresBookingRepository {
	return &PostgresBookingRepository{conn: conn}
}

func (r *PostgresBookingRepository) Save(ctx context.Context, b *domain.Booking) error {
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			region_id = EXCLUDED.region_id,
			service_id = EXCLUDED.service_id,
			start_at = EXCLUDED.start_at,
			status = EXCLUDED.status,
			provider_id = EXCLUDED.provider_id,
			price_cents = EXCLUDED.price_cents,
			reschedule_attempts = EXCLUDED.reschedule_attempts,
			max_attempts = EXCLUDED.max_attempts,
			series_id = EXCLUDED.series_id,
			series_position = EXCLUDED.series_position,
			recommended_providers = EXCLUDED.recommended_providers,
			cancel_tag = EXCLUDED.cancel_tag,
			updated_at = EXCLUDED.updated_at`,
		b.ID, b.UserID, b.RegionID, b.ServiceID, b.Start.UTC(), string(b.Status), b.ProviderID,
		b.PriceCents, b.RescheduleAttempts, b.MaxAttempts, b.SeriesID, b.SeriesPosition,
		pq.Array(uuidsToStrings(b.RecommendedProviders)), b.CancelTag, b.CreatedAt.UTC(), b.UpdatedAt.UTC(),
	)
	return err
}

func (r *PostgresBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanPostgresBooking(row)
	if database.IsNoRows(err) {
		return nil, domain.ErrBookingNotFound
	}
	return b, err
}

func (r *PostgresBookingRepository) FindUnfilledInWindow(ctx context.Context, regionIDs []string, from, to time.Time) ([]*domain.Booking, error) {
	if len(regionIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE status = $1 AND provider_id IS NULL
		  AND start_at >= $2 AND start_at < $3
		  AND region_id = ANY($4)
		ORDER BY start_at, id`,
		string(domain.BookingStatusConfirmed), from.UTC(), to.UTC(), pq.Array(regionIDs))
}

// FindBySeries returns every booking of a recurring series in position order.
func (r *PostgresBookingRepository) FindBySeries(ctx context.Context, seriesID uuid.UUID) ([]*domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE series_id = $1 ORDER BY series_position, start_at`, seriesID)
}

func (r *PostgresBookingRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		b, err := scanPostgresBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func scanPostgresBooking(row database.Row) (*domain.Booking, error) {
	var (
		b         domain.Booking
		status    string
		providers pq.StringArray
	)
	if err := row.Scan(
		&b.ID, &b.UserID, &b.RegionID, &b.ServiceID, &b.Start, &status, &b.ProviderID,
		&b.PriceCents, &b.RescheduleAttempts, &b.MaxAttempts, &b.SeriesID, &b.SeriesPosition,
		&providers, &b.CancelTag, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	ids, err := stringsToUUIDs(providers)
	if err != nil {
		return nil, err
	}
	b.RecommendedProviders = ids
	b.Status = domain.BookingStatus(status)
	return &b, nil
}
