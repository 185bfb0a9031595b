package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// DuckDB implements Adapter on an embedded DuckDB database.
type DuckDB struct {
	db     *sql.DB
	config Config
}

// NewDuckDB creates a new DuckDB adapter instance.
func NewDuckDB() *DuckDB {
	return &DuckDB{}
}

// Connect opens the database and applies the resource settings from cfg.
// Use ":memory:" (or an empty path) for an in-memory database.
func (a *DuckDB) Connect(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	// SET statements and temporary tables are session-scoped; a single
	// pooled connection keeps them visible to every later statement.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.db = db
	a.config = cfg

	if err := a.applySettings(ctx); err != nil {
		_ = db.Close()
		a.db = nil
		return err
	}

	return nil
}

// applySettings bounds the engine's resource usage so fact-table scans spill
// to disk instead of exhausting memory.
func (a *DuckDB) applySettings(ctx context.Context) error {
	var settings []string
	if a.config.MemoryLimit != "" {
		settings = append(settings, fmt.Sprintf("SET memory_limit = '%s'", escapeLiteral(a.config.MemoryLimit)))
	}
	if a.config.Threads > 0 {
		settings = append(settings, "SET threads = "+strconv.Itoa(a.config.Threads))
	}
	if a.config.TempDir != "" {
		settings = append(settings, fmt.Sprintf("SET temp_directory = '%s'", escapeLiteral(a.config.TempDir)))
	}
	// Aggregation output order is imposed by explicit ORDER BY clauses, so
	// insertion-order preservation only costs memory here.
	settings = append(settings, "SET preserve_insertion_order = false")

	for _, stmt := range settings {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply setting %q: %w", stmt, err)
		}
	}
	return nil
}

// Close closes the DuckDB connection.
func (a *DuckDB) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (a *DuckDB) Exec(ctx context.Context, sqlStr string) error {
	if a.db == nil {
		return fmt.Errorf("database connection not established")
	}

	if _, err := a.db.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a SQL statement that returns rows.
func (a *DuckDB) Query(ctx context.Context, sqlStr string) (*Rows, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := a.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	return &Rows{Rows: rows}, nil
}

// DialectName returns the SQL dialect name.
func (a *DuckDB) DialectName() string {
	return "duckdb"
}

// escapeLiteral doubles single quotes for embedding in a SQL string literal.
func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

var _ Adapter = (*DuckDB)(nil)
