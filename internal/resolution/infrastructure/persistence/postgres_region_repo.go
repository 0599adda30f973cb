package persistence

import (
	"context"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/internal/shared/application"
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/database"
)

// PostgresRegionRepository implements domain.RegionConfigProvider and
// domain.RegionConfigWriter using PostgreSQL.
type PostgresRegionRepository struct {
	conn database.Connection
	uow  application.UnitOfWork
}

// NewPostgresRegionRepository creates a new PostgreSQL region repository.
func NewPostgresRegionRepository(conn database.Connection) *PostgresRegionRepository {
	return &PostgresRegionRepository{conn: conn, uow: database.NewUnitOfWork(conn)}
}

func (r *PostgresRegionRepository) Region(ctx context.Context, regionID string) (*domain.Region, error) {
	var region domain.Region
	err := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, `
		SELECT id, name, country_code, timezone, auto_enabled, max_attempts
		FROM regions WHERE id = $1`, regionID,
	).Scan(&region.ID, &region.Name, &region.CountryCode, &region.Timezone, &region.AutoEnabled, &region.MaxAttempts)
	if database.IsNoRows(err) {
		return nil, domain.ErrRegionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &region, nil
}

func (r *PostgresRegionRepository) AutoEnabledRegionIDs(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, database.ExecutorFromContext(ctx, r.conn),
		`SELECT id FROM regions WHERE auto_enabled ORDER BY id`)
}

func (r *PostgresRegionRepository) WindowMinutes(ctx context.Context, regionID, serviceID string) (int, bool, error) {
	var minutes int
	err := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT minutes FROM region_service_windows WHERE region_id = $1 AND service_id = $2`,
		regionID, serviceID,
	).Scan(&minutes)
	if database.IsNoRows(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return minutes, true, nil
}

func (r *PostgresRegionRepository) MaxWindowMinutes(ctx context.Context) (int, bool, error) {
	var minutes *int
	if err := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT MAX(minutes) FROM region_service_windows`,
	).Scan(&minutes); err != nil {
		return 0, false, err
	}
	if minutes == nil {
		return 0, false, nil
	}
	return *minutes, true, nil
}

func (r *PostgresRegionRepository) DayPolicy(ctx context.Context, regionID string) (domain.DayPolicy, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		`SELECT from_day, to_day FROM region_day_policies WHERE region_id = $1`, regionID)
	if err != nil {
		return domain.DayPolicy{}, err
	}
	return scanDayPolicy(regionID, rows)
}

func (r *PostgresRegionRepository) SaveRegion(ctx context.Context, region *domain.Region) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO regions (id, name, country_code, timezone, auto_enabled, max_attempts)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			country_code = EXCLUDED.country_code,
			timezone = EXCLUDED.timezone,
			auto_enabled = EXCLUDED.auto_enabled,
			max_attempts = EXCLUDED.max_attempts,
			updated_at = NOW()`,
		region.ID, region.Name, domain.NormalizeCountry(region.CountryCode), regionTimezone(region),
		region.AutoEnabled, region.MaxAttempts,
	)
	return err
}

func (r *PostgresRegionRepository) SaveWindow(ctx context.Context, w domain.WindowConfig) error {
	if err := w.Validate(); err != nil {
		return err
	}
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO region_service_windows (region_id, service_id, minutes) VALUES ($1, $2, $3)
		ON CONFLICT (region_id, service_id) DO UPDATE SET minutes = EXCLUDED.minutes`,
		w.RegionID, w.ServiceID, w.Minutes,
	)
	return err
}

func (r *PostgresRegionRepository) SaveDayPolicy(ctx context.Context, policy domain.DayPolicy) error {
	return application.WithUnitOfWork(ctx, r.uow, func(txCtx context.Context) error {
		exec := database.ExecutorFromContext(txCtx, r.conn)
		if _, err := exec.Exec(txCtx, `DELETE FROM region_day_policies WHERE region_id = $1`, policy.RegionID); err != nil {
			return err
		}
		for from, to := range policy.Entries() {
			if _, err := exec.Exec(txCtx,
				`INSERT INTO region_day_policies (region_id, from_day, to_day) VALUES ($1, $2, $3)`,
				policy.RegionID, int16(from), int16(to),
			); err != nil {
				return err
			}
		}
		return nil
	})
}
