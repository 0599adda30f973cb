package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// PostgresOutcomeRepository is the append-only outcome log on PostgreSQL.
type PostgresOutcomeRepository struct {
	conn database.Connection
}

// NewPostgresOutcomeRepository creates a new PostgreSQL outcome repository.
func NewPostgresOutcomeRepository(conn database.Connection) *PostgresOutcomeRepository {
	return &PostgresOutcomeRepository{conn: conn}
}

func (r *PostgresOutcomeRepository) Append(ctx context.Context, e domain.OutcomeEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`INSERT INTO resolution_outcomes (`+outcomeColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.BookingID, e.OriginalStart.UTC(), e.NewStart, nullReason(e.ReasonID),
		string(e.Type), e.Success, e.Message, e.RecordedAt.UTC(),
	)
	return err
}

func (r *PostgresOutcomeRepository) List(ctx context.Context, filter domain.OutcomeFilter) ([]domain.OutcomeEntry, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.BookingID != nil {
		where = append(where, "booking_id = "+arg(*filter.BookingID))
	}
	if filter.Type != "" {
		where = append(where, "type = "+arg(string(filter.Type)))
	}
	if filter.Since != nil {
		where = append(where, "recorded_at >= "+arg(filter.Since.UTC()))
	}

	query := `SELECT ` + outcomeColumns + ` FROM resolution_outcomes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY recorded_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.OutcomeEntry
	for rows.Next() {
		var (
			e        domain.OutcomeEntry
			typ      string
			reasonID *int
		)
		if err := rows.Scan(&e.ID, &e.BookingID, &e.OriginalStart, &e.NewStart, &reasonID, &typ, &e.Success, &e.Message, &e.RecordedAt); err != nil {
			return nil, err
		}
		if reasonID != nil {
			e.ReasonID = *reasonID
		}
		e.Type = domain.OutcomeType(typ)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
