package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run represents a single recorded check run
type Run struct {
	ID         string
	StartedAt  time.Time
	DurationMs int64
	Documents  int
	Blocks     int
	Failures   int
	Passed     bool
}

// BlockFailure represents one diagram that failed to render during a run
type BlockFailure struct {
	ID         int64
	RunID      string
	Document   string
	BlockIndex int
	Line       int
	Status     string
	Diagnostic string
}

// Store manages the SQLite database holding the run ledger
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a new Store instance and initializes the database
func NewStore(dbPath string) (*Store, error) {
	// Handle in-memory database
	if dbPath == ":memory:" {
		return openAndInitStore(dbPath)
	}

	// Ensure parent directory exists for file-based databases
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	return openAndInitStore(dbPath)
}

// openAndInitStore opens the database connection and initializes schema
func openAndInitStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Configure SQLite for concurrent access with retry logic.
	// Set busy_timeout FIRST so subsequent operations wait on locks.
	// Use retry with backoff for "database is locked" errors that can occur
	// during concurrent initialization of the same database file.
	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-64000", // 64MB cache
	}

	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on lock errors.
func execWithRetry(db *sql.DB, sql string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(sql)
		if err == nil {
			return nil
		}

		// Only retry on "database is locked" errors
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}

		lastErr = err
		delay := baseDelay * time.Duration(1<<attempt)
		time.Sleep(delay)
	}
	return lastErr
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// initSchema initializes the database schema using migrations
func (s *Store) initSchema() error {
	ctx := context.Background()

	if err := s.ApplyMigrations(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// getSchemaVersion retrieves the current schema version (delegates to GetLatestVersion)
func (s *Store) getSchemaVersion() (int, error) {
	return s.GetLatestVersion()
}

// tableExists checks if a table exists in the database
func (s *Store) tableExists(tableName string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`
	err := s.db.QueryRow(query, tableName).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check table existence: %w", err)
	}
	return count > 0, nil
}

// indexExists checks if an index exists in the database
func (s *Store) indexExists(indexName string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?`
	err := s.db.QueryRow(query, indexName).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check index existence: %w", err)
	}
	return count > 0, nil
}

// RecordRun records a completed check run and its per-block failures in a
// single transaction. Failure rows inherit the run's ID; their database IDs
// are written back after insertion.
func (s *Store) RecordRun(ctx context.Context, run *Run, failures []*BlockFailure) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	runQuery := `INSERT INTO runs
		(id, started_at, duration_ms, documents, blocks, failures, passed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	if _, err := tx.ExecContext(ctx, runQuery,
		run.ID,
		run.StartedAt.UTC(),
		run.DurationMs,
		run.Documents,
		run.Blocks,
		run.Failures,
		run.Passed,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	failureQuery := `INSERT INTO block_failures
		(run_id, document, block_index, line, status, diagnostic)
		VALUES (?, ?, ?, ?, ?, ?)`

	for _, f := range failures {
		result, err := tx.ExecContext(ctx, failureQuery,
			run.ID,
			f.Document,
			f.BlockIndex,
			f.Line,
			f.Status,
			f.Diagnostic,
		)
		if err != nil {
			return fmt.Errorf("insert block failure: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("get last insert id: %w", err)
		}
		f.ID = id
		f.RunID = run.ID
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}

	return nil
}

// GetRuns retrieves the most recent runs, newest first. A non-positive limit
// returns all recorded runs.
func (s *Store) GetRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded
	}

	query := `SELECT id, started_at, duration_ms, documents, blocks, failures, passed
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		err := rows.Scan(
			&run.ID,
			&run.StartedAt,
			&run.DurationMs,
			&run.Documents,
			&run.Blocks,
			&run.Failures,
			&run.Passed,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}

// GetFailures retrieves the per-block failures recorded for a run, ordered
// by document and block index
func (s *Store) GetFailures(ctx context.Context, runID string) ([]*BlockFailure, error) {
	query := `SELECT id, run_id, document, block_index, line, status, diagnostic
		FROM block_failures
		WHERE run_id = ?
		ORDER BY document ASC, block_index ASC`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query block failures: %w", err)
	}
	defer rows.Close()

	var failures []*BlockFailure
	for rows.Next() {
		f := &BlockFailure{}
		var diagnostic sql.NullString
		err := rows.Scan(
			&f.ID,
			&f.RunID,
			&f.Document,
			&f.BlockIndex,
			&f.Line,
			&f.Status,
			&diagnostic,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failure row: %w", err)
		}

		if diagnostic.Valid {
			f.Diagnostic = diagnostic.String
		}

		failures = append(failures, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failure rows: %w", err)
	}

	return failures, nil
}

// PruneRuns deletes all but the newest keepRuns runs along with their
// recorded failures. It returns the number of runs removed.
func (s *Store) PruneRuns(ctx context.Context, keepRuns int) (int64, error) {
	if keepRuns <= 0 {
		return 0, fmt.Errorf("keep runs must be positive, got %d", keepRuns)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	result, err := tx.ExecContext(ctx, `DELETE FROM runs
		WHERE id NOT IN (SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT ?)`,
		keepRuns,
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}

	pruned, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count pruned runs: %w", err)
	}

	// Failure rows have no cascade; remove orphans explicitly.
	if _, err := tx.ExecContext(ctx, `DELETE FROM block_failures
		WHERE run_id NOT IN (SELECT id FROM runs)`); err != nil {
		return 0, fmt.Errorf("prune block failures: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}

	return pruned, nil
}
