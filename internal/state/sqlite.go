package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // sqlite driver
)

// SQLiteStore records run history in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Open opens the database and runs pending migrations.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path

	if err := s.Migrate(); err != nil {
		_ = db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateRun records the start of a detection run and returns it.
func (s *SQLiteStore) CreateRun(spendingPath, outputPath string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:           uuid.New().String(),
		Status:       RunStatusRunning,
		StartedAt:    time.Now().UTC().Format(time.RFC3339),
		SpendingPath: spendingPath,
		OutputPath:   outputPath,
	}

	_, err := s.db.Exec(`
		INSERT INTO runs (id, status, started_at, spending_path, output_path)
		VALUES (?, ?, ?, ?, ?)`,
		run.ID, string(run.Status), run.StartedAt, run.SpendingPath, run.OutputPath,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as completed with its outcome numbers.
func (s *SQLiteStore) CompleteRun(id string, outcome RunOutcome) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(`
		UPDATE runs
		SET status = ?, completed_at = ?, providers_scanned = ?,
		    providers_flagged = ?, overpayment_usd = ?, signal_counts = ?
		WHERE id = ?`,
		string(RunStatusCompleted), time.Now().UTC().Format(time.RFC3339),
		outcome.ProvidersScanned, outcome.ProvidersFlagged,
		outcome.OverpaymentUSD, outcome.SignalCounts, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// FailRun marks a run as failed with the error message.
func (s *SQLiteStore) FailRun(id string, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(`
		UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(RunStatusFailed), time.Now().UTC().Format(time.RFC3339), errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark run failed: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRow(`
		SELECT id, status, started_at, completed_at, spending_path, output_path,
		       providers_scanned, providers_flagged, overpayment_usd,
		       signal_counts, error
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, status, started_at, completed_at, spending_path, output_path,
		       providers_scanned, providers_flagged, overpayment_usd,
		       signal_counts, error
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to list runs: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (*Run, error) {
	var run Run
	var status string
	var completedAt, signalCounts, errMsg sql.NullString
	err := r.Scan(
		&run.ID, &status, &run.StartedAt, &completedAt,
		&run.SpendingPath, &run.OutputPath,
		&run.ProvidersScanned, &run.ProvidersFlagged, &run.OverpaymentUSD,
		&signalCounts, &errMsg,
	)
	if err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	if completedAt.Valid {
		run.CompletedAt = &completedAt.String
	}
	run.SignalCounts = signalCounts.String
	if errMsg.Valid {
		run.Error = &errMsg.String
	}
	return &run, nil
}
