package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/internal/shared/application"
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/database"
)

// SQLiteRegionRepository implements domain.RegionConfigProvider and
// domain.RegionConfigWriter using SQLite.
type SQLiteRegionRepository struct {
	conn database.Connection
	uow  application.UnitOfWork
}

// NewSQLiteRegionRepository creates a new SQLite region repository.
func NewSQLiteRegionRepository(conn database.Connection) *SQLiteRegionRepository {
	return &SQLiteRegionRepository{conn: conn, uow: database.NewUnitOfWork(conn)}
}

func (r *SQLiteRegionRepository) Region(ctx context.Context, regionID string) (*domain.Region, error) {
	var (
		region      domain.Region
		autoEnabled int
		maxAttempts sql.NullInt64
	)
	err := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, `
		SELECT id, name, country_code, timezone, auto_enabled, max_attempts
		FROM regions WHERE id = ?`, regionID,
	).Scan(&region.ID, &region.Name, &region.CountryCode, &region.Timezone, &autoEnabled, &maxAttempts)
	if database.IsNoRows(err) {
		return nil, domain.ErrRegionNotFound
	}
	if err != nil {
		return nil, err
	}
	region.AutoEnabled = autoEnabled != 0
	region.MaxAttempts = intPtr(maxAttempts)
	return &region, nil
}

func (r *SQLiteRegionRepository) AutoEnabledRegionIDs(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, database.ExecutorFromContext(ctx, r.conn),
		`SELECT id FROM regions WHERE auto_enabled = 1 ORDER BY id`)
}

func (r *SQLiteRegionRepository) WindowMinutes(ctx context.Context, regionID, serviceID string) (int, bool, error) {
	var minutes int
	err := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT minutes FROM region_service_windows WHERE region_id = ? AND service_id = ?`,
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

func (r *SQLiteRegionRepository) MaxWindowMinutes(ctx context.Context) (int, bool, error) {
	var minutes sql.NullInt64
	if err := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT MAX(minutes) FROM region_service_windows`,
	).Scan(&minutes); err != nil {
		return 0, false, err
	}
	if !minutes.Valid {
		return 0, false, nil
	}
	return int(minutes.Int64), true, nil
}

func (r *SQLiteRegionRepository) DayPolicy(ctx context.Context, regionID string) (domain.DayPolicy, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		`SELECT from_day, to_day FROM region_day_policies WHERE region_id = ?`, regionID)
	if err != nil {
		return domain.DayPolicy{}, err
	}
	return scanDayPolicy(regionID, rows)
}

func (r *SQLiteRegionRepository) SaveRegion(ctx context.Context, region *domain.Region) error {
	now := database.FormatTextTime(time.Now())
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO regions (id, name, country_code, timezone, auto_enabled, max_attempts, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			country_code = excluded.country_code,
			timezone = excluded.timezone,
			auto_enabled = excluded.auto_enabled,
			max_attempts = excluded.max_attempts,
			updated_at = excluded.updated_at`,
		region.ID, region.Name, domain.NormalizeCountry(region.CountryCode), regionTimezone(region),
		boolToInt(region.AutoEnabled), nullInt(region.MaxAttempts), now, now,
	)
	return err
}

func (r *SQLiteRegionRepository) SaveWindow(ctx context.Context, w domain.WindowConfig) error {
	if err := w.Validate(); err != nil {
		return err
	}
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO region_service_windows (region_id, service_id, minutes) VALUES (?, ?, ?)
		ON CONFLICT (region_id, service_id) DO UPDATE SET minutes = excluded.minutes`,
		w.RegionID, w.ServiceID, w.Minutes,
	)
	return err
}

// SaveDayPolicy replaces the region's policy in one transaction.
func (r *SQLiteRegionRepository) SaveDayPolicy(ctx context.Context, policy domain.DayPolicy) error {
	return application.WithUnitOfWork(ctx, r.uow, func(txCtx context.Context) error {
		exec := database.ExecutorFromContext(txCtx, r.conn)
		if _, err := exec.Exec(txCtx, `DELETE FROM region_day_policies WHERE region_id = ?`, policy.RegionID); err != nil {
			return err
		}
		for from, to := range policy.Entries() {
			if _, err := exec.Exec(txCtx,
				`INSERT INTO region_day_policies (region_id, from_day, to_day) VALUES (?, ?, ?)`,
				policy.RegionID, int(from), int(to),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func regionTimezone(region *domain.Region) string {
	if region.Timezone == "" {
		return "UTC"
	}
	return region.Timezone
}

func queryStrings(ctx context.Context, exec database.Executor, query string, args ...any) ([]string, error) {
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanDayPolicy(regionID string, rows database.Rows) (domain.DayPolicy, error) {
	defer rows.Close()
	targets := make(map[time.Weekday]time.Weekday)
	for rows.Next() {
		var from, to int
		if err := rows.Scan(&from, &to); err != nil {
			return domain.DayPolicy{}, err
		}
		targets[time.Weekday(from)] = time.Weekday(to)
	}
	if err := rows.Err(); err != nil {
		return domain.DayPolicy{}, err
	}
	return domain.NewDayPolicy(regionID, targets), nil
}
