// Package adapter provides the database boundary for the detection engine.
// All heavy scans, filters and aggregations over the claims fact table are
// delegated to the columnar engine behind this interface.
package adapter

import (
	"context"
	"database/sql"
)

// Config holds the configuration for opening the analytical database.
type Config struct {
	// Path is the database file path. Empty or ":memory:" runs in memory;
	// large fact tables should use a file path so scans can spill to disk.
	Path string

	// MemoryLimit caps the engine's working memory (e.g. "4GB"). Empty
	// leaves the engine default in place.
	MemoryLimit string

	// Threads bounds engine parallelism. Zero leaves the default.
	Threads int

	// TempDir is where the engine spills intermediates when the memory
	// limit is reached. Empty leaves the default.
	TempDir string
}

// Rows wraps sql.Rows to keep callers off a specific driver's API.
type Rows struct {
	*sql.Rows
}

// Adapter is the narrow contract the engine and stores depend on.
type Adapter interface {
	// Connect opens the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the connection and releases resources.
	Close() error

	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a statement that returns rows. Callers must close the
	// rows and check rows.Err() after iteration.
	Query(ctx context.Context, sql string) (*Rows, error)

	// DialectName returns the SQL dialect name (e.g. "duckdb").
	DialectName() string
}
