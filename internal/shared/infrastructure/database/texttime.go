package database

import (
	"database/sql"
	"time"
)

// TextTimeLayout is how SQLite repositories store instants: UTC with fixed
// microsecond width, so lexical order in SQL matches time order.
const TextTimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// FormatTextTime formats t for a TEXT column.
func FormatTextTime(t time.Time) string {
	return t.UTC().Format(TextTimeLayout)
}

// NullTextTime formats an optional instant for a nullable TEXT column.
func NullTextTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: FormatTextTime(*t), Valid: true}
}

// ParseTextTime parses a value written by FormatTextTime. RFC 3339 values
// written by hand or by older tooling are accepted too.
func ParseTextTime(s string) (time.Time, error) {
	if t, err := time.Parse(TextTimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// ParseNullTextTime parses a nullable TEXT column.
func ParseNullTextTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := ParseTextTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
