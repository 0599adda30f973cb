package persistence

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/internal/shared/application"
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// BookingStore is the booking repository plus the series lookup the
// reschedule operation needs.
type BookingStore interface {
	domain.BookingRepository
	FindBySeries(ctx context.Context, seriesID uuid.UUID) ([]*domain.Booking, error)
}

// RegionStore reads and writes region configuration.
type RegionStore interface {
	domain.RegionConfigProvider
	domain.RegionConfigWriter
}

// Repositories groups the driver-specific repositories over one connection.
type Repositories struct {
	Bookings      BookingStore
	Regions       RegionStore
	Outcomes      domain.OutcomeRepository
	Cancellations domain.CancellationRecordRepository
	Outbox        outbox.Repository
	UnitOfWork    application.UnitOfWork
}

// NewRepositories picks the SQLite or PostgreSQL implementations for conn.
func NewRepositories(conn database.Connection) (*Repositories, error) {
	repos := &Repositories{UnitOfWork: database.NewUnitOfWork(conn)}
	switch conn.Driver() {
	case database.DriverSQLite:
		repos.Bookings = NewSQLiteBookingRepository(conn)
		repos.Regions = NewSQLiteRegionRepository(conn)
		repos.Outcomes = NewSQLiteOutcomeRepository(conn)
		repos.Cancellations = NewSQLiteCancellationRecordRepository(conn)
		repos.Outbox = outbox.NewSQLiteRepository(conn)
	case database.DriverPostgres:
		repos.Bookings = NewPostgresBookingRepository(conn)
		repos.Regions = NewPostgresRegionRepository(conn)
		repos.Outcomes = NewPostgresOutcomeRepository(conn)
		repos.Cancellations = NewPostgresCancellationRecordRepository(conn)
		repos.Outbox = outbox.NewPostgresRepository(conn)
	default:
		return nil, fmt.Errorf("%w: %s", database.ErrUnsupportedDriver, conn.Driver())
	}
	return repos, nil
}
