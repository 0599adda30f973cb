package persistence

import (
	"context"
	"database/sql"
	"strings"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const outcomeColumns = `id, booking_id, original_start, new_start, reason_id, type, success, message, recorded_at`

// SQLiteOutcomeRepository is the append-only outcome log on SQLite.
type SQLiteOutcomeRepository struct {
	conn database.Connection
}

// NewSQLiteOutcomeRepository creates a new SQLite outcome repository.
func NewSQLiteOutcomeRepository(conn database.Connection) *SQLiteOutcomeRepository {
	return &SQLiteOutcomeRepository{conn: conn}
}

func (r *SQLiteOutcomeRepository) Append(ctx context.Context, e domain.OutcomeEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`INSERT INTO resolution_outcomes (`+outcomeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.BookingID.String(), database.FormatTextTime(e.OriginalStart),
		database.NullTextTime(e.NewStart), nullReason(e.ReasonID), string(e.Type),
		boolToInt(e.Success), e.Message, database.FormatTextTime(e.RecordedAt),
	)
	return err
}

// List returns entries newest first.
func (r *SQLiteOutcomeRepository) List(ctx context.Context, filter domain.OutcomeFilter) ([]domain.OutcomeEntry, error) {
	var (
		where []string
		args  []any
	)
	if filter.BookingID != nil {
		where = append(where, "booking_id = ?")
		args = append(args, filter.BookingID.String())
	}
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Since != nil {
		where = append(where, "recorded_at >= ?")
		args = append(args, database.FormatTextTime(*filter.Since))
	}

	query := `SELECT ` + outcomeColumns + ` FROM resolution_outcomes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY recorded_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.OutcomeEntry
	for rows.Next() {
		var (
			e                            domain.OutcomeEntry
			id, bookingID, original, typ string
			recordedAt                   string
			newStart                     sql.NullString
			reasonID                     sql.NullInt64
			success                      int
		)
		if err := rows.Scan(&id, &bookingID, &original, &newStart, &reasonID, &typ, &success, &e.Message, &recordedAt); err != nil {
			return nil, err
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if e.BookingID, err = uuid.Parse(bookingID); err != nil {
			return nil, err
		}
		if e.OriginalStart, err = database.ParseTextTime(original); err != nil {
			return nil, err
		}
		if e.NewStart, err = database.ParseNullTextTime(newStart); err != nil {
			return nil, err
		}
		if e.RecordedAt, err = database.ParseTextTime(recordedAt); err != nil {
			return nil, err
		}
		e.ReasonID = int(reasonID.Int64)
		e.Type = domain.OutcomeType(typ)
		e.Success = success != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// nullReason keeps reason_id NULL for entries without a catalog reason.
func nullReason(id int) sql.NullInt64 {
	if id <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(id), Valid: true}
}
