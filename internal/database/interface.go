package database

import (
	"context"
	"fmt"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/config"
)

// DB is the storage interface used by the orchestration core.
// Implementations exist for SQLite (default) and MySQL.
type DB interface {
	// Select executes a query and scans rows into dest (slice pointer).
	Select(ctx context.Context, dest any, query string, args ...any) error

	// Get executes a query expected to return a single row and scans into dest.
	Get(ctx context.Context, dest any, query string, args ...any) error

	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context, query string, args ...any) error

	// Insert inserts a struct-tagged record into table.
	Insert(ctx context.Context, table string, record any) error

	// Update updates rows matching the where clause with values from record.
	Update(ctx context.Context, table string, record any, where string, args ...any) error

	// Migrate applies pending schema migrations in order.
	Migrate(ctx context.Context) error

	// Ping verifies the database connection is alive.
	Ping(ctx context.Context) error

	// Close releases the database connection.
	Close() error

	// Driver returns the backend name: "sqlite" or "mysql".
	Driver() string
}

// New returns a DB implementation matching cfg.Driver.
// SQLite is the default when driver is empty or unrecognised.
func New(cfg config.DatabaseConfig) (DB, error) {
	switch cfg.Driver {
	case "mysql":
		return NewMySQL(cfg)
	case "sqlite", "sqlite3", "":
		return NewSQLite(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q (supported: sqlite, mysql)", cfg.Driver)
	}
}
