package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Config selects and configures a backend.
type Config struct {
	Driver     Driver
	URL        string
	SQLitePath string
	// MaxConns bounds the Postgres pool; zero keeps the pgxpool default.
	MaxConns int
}

type opener func(ctx context.Context, cfg Config) (Connection, error)

var openers = map[Driver]opener{}

// Register installs the connection factory for a driver. The postgres and
// sqlite subpackages call it from init, so importing them enables the driver.
func Register(driver Driver, fn func(ctx context.Context, cfg Config) (Connection, error)) {
	openers[driver] = fn
}

// Open connects to the configured backend.
func Open(ctx context.Context, cfg Config) (Connection, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DetectDriver(cfg.URL)
	}
	open, ok := openers[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %s (driver not linked)", ErrUnsupportedDriver, driver)
	}
	return open(ctx, cfg)
}

// EnsureDirectory creates the parent directory of path.
func EnsureDirectory(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
