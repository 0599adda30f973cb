// Package migrations applies the embedded schema for each supported driver.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version     TEXT PRIMARY KEY,
    applied_at  TEXT NOT NULL
)`

// Versions lists the migrations shipped for driver, in apply order.
func Versions(driver database.Driver) ([]string, error) {
	entries, err := fs.ReadDir(files, driver.String())
	if err != nil {
		return nil, fmt.Errorf("%w: no migrations for %s", database.ErrUnsupportedDriver, driver)
	}
	var versions []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			versions = append(versions, strings.TrimSuffix(e.Name(), ".up.sql"))
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// Run applies every pending migration for the connection's driver and returns
// the versions it applied. Each migration runs in its own transaction.
func Run(ctx context.Context, conn database.Connection) ([]string, error) {
	driver := conn.Driver()
	versions, err := Versions(driver)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(ctx, createVersionTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return nil, err
	}

	uow := database.NewUnitOfWork(conn)
	var ran []string
	for _, v := range versions {
		if applied[v] {
			continue
		}
		script, err := files.ReadFile(driver.String() + "/" + v + ".up.sql")
		if err != nil {
			return ran, fmt.Errorf("read migration %s: %w", v, err)
		}
		if err := apply(ctx, uow, conn, v, string(script)); err != nil {
			return ran, fmt.Errorf("apply migration %s: %w", v, err)
		}
		ran = append(ran, v)
	}
	return ran, nil
}

func apply(ctx context.Context, uow *database.UnitOfWork, conn database.Connection, version, script string) error {
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}
	exec := database.ExecutorFromContext(txCtx, conn)

	if _, err := exec.Exec(txCtx, script); err != nil {
		_ = uow.Rollback(txCtx)
		return err
	}
	if _, err := exec.Exec(txCtx, insertVersion(conn.Driver()), version, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = uow.Rollback(txCtx)
		return err
	}
	return uow.Commit(txCtx)
}

func appliedVersions(ctx context.Context, conn database.Connection) (map[string]bool, error) {
	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func insertVersion(driver database.Driver) string {
	if driver == database.DriverPostgres {
		return `INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)`
	}
	return `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`
}
