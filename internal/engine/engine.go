// Package engine orchestrates a detection run: dataset attachment, the six
// signal detectors in fixed order, aggregation, and run-history recording.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/claimwatch/fraudscan/internal/adapter"
	"github.com/claimwatch/fraudscan/internal/signal"
	"github.com/claimwatch/fraudscan/internal/state"
)

// Config holds engine configuration.
type Config struct {
	// SpendingPath is the claims-spending fact table (parquet or csv).
	SpendingPath string
	// ExclusionsPath is the exclusion-list CSV.
	ExclusionsPath string
	// RegistryPath is the provider-registry CSV. Empty degrades the run
	// to Signal 1 only.
	RegistryPath string
	// OutputPath is recorded in run history; the engine does not write
	// the report itself.
	OutputPath string

	// DatabasePath is the analytical database file (empty for in-memory).
	DatabasePath string
	// StatePath is the run-history SQLite database.
	StatePath string

	// MemoryLimit caps the analytical engine's working memory (e.g. "4GB").
	MemoryLimit string
	// Threads bounds analytical engine parallelism. Zero uses the default.
	Threads int
	// TempDir is where scans spill when the memory limit is reached.
	TempDir string

	// Signals holds the detector thresholds.
	Signals signal.Config

	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger

	// Progress, when set, receives a short description of each run stage.
	Progress func(stage string)
}

// Engine runs the detection pipeline.
type Engine struct {
	db     adapter.Adapter
	config Config
	logger *slog.Logger
	store  *state.SQLiteStore
}

// New creates an engine with a lazy analytical-database connection; the
// database is only connected when Run is called. The run-history store
// opens immediately.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	store := state.NewSQLiteStore()
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open run history store: %w", err)
	}

	return &Engine{
		db:     adapter.NewDuckDB(),
		config: cfg,
		logger: logger,
		store:  store,
	}, nil
}

// Close releases the engine's database connections.
func (e *Engine) Close() error {
	var firstErr error
	if err := e.db.Close(); err != nil {
		firstErr = err
	}
	if err := e.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (e *Engine) progress(stage string) {
	if e.config.Progress != nil {
		e.config.Progress(stage)
	}
}
