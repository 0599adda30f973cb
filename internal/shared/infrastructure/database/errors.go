package database

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrNoRows is returned when a single-row query matched nothing.
	ErrNoRows = errors.New("no rows in result set")
	// ErrUnsupportedDriver is returned for an unknown DATABASE_DRIVER.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
	// ErrNoTransaction is returned by Commit and Rollback outside a unit of work.
	ErrNoTransaction = errors.New("no transaction in context")
)

// IsNoRows reports whether err means "not found" for either driver.
func IsNoRows(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, pgx.ErrNoRows) ||
		errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, ErrNoRows)
}
