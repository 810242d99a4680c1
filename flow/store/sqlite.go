package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite implementation of Store[S].
//
// It persists checkpoints in a single-file database, keeping every
// checkpoint row per thread (the unique (thread_id, step_index) history
// doubles as an audit trail); Get returns the row with the highest step
// index. Designed for:
//   - Development and local workflows with zero setup
//   - Single-process durable threads that survive restarts
//   - Prototyping before migrating to MySQLStore
//
// WAL mode is enabled so readers don't block the single writer.
//
// Type parameter S is the state type to persist (must be
// JSON-serializable).
type SQLiteStore[S any] struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// NewSQLiteStore opens (creating if necessary) a SQLite-backed checkpoint
// store at path. Use ":memory:" for an in-memory database in tests.
//
// The store enables WAL mode, foreign keys, and a 5 second busy timeout,
// and creates its schema on first use.
func NewSQLiteStore[S any](path string) (*SQLiteStore[S], error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore[S]{db: db, path: path}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore[S]) createTables(ctx context.Context) error {
	table := `
		CREATE TABLE IF NOT EXISTS thread_checkpoints (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			thread_id TEXT NOT NULL,
			step_index INTEGER NOT NULL,
			pending_step TEXT NOT NULL,
			state TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(thread_id, step_index)
		)
	`
	if _, err := s.db.ExecContext(ctx, table); err != nil {
		return fmt.Errorf("failed to create thread_checkpoints table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_checkpoints_thread ON thread_checkpoints(thread_id)",
		"CREATE INDEX IF NOT EXISTS idx_checkpoints_thread_step ON thread_checkpoints(thread_id, step_index)",
	}
	for _, idx := range indexes {
		if _, err := s.db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// Put stores cp as the latest checkpoint for threadID. A re-put of the
// same step index (a retry after a partial failure) overwrites that row.
func (s *SQLiteStore[S]) Put(ctx context.Context, threadID string, cp Checkpoint[S]) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	stateJSON, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	query := `
		INSERT INTO thread_checkpoints (thread_id, step_index, pending_step, state, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(thread_id, step_index) DO UPDATE SET
			pending_step = excluded.pending_step,
			state = excluded.state,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		threadID, cp.StepIndex, cp.PendingStep, string(stateJSON),
		cp.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Get returns the checkpoint with the highest step index for threadID,
// or ErrNotFound.
func (s *SQLiteStore[S]) Get(ctx context.Context, threadID string) (Checkpoint[S], error) {
	var zero Checkpoint[S]
	if err := s.checkOpen(); err != nil {
		return zero, err
	}

	query := `
		SELECT thread_id, step_index, pending_step, state, updated_at
		FROM thread_checkpoints
		WHERE thread_id = ?
		ORDER BY step_index DESC
		LIMIT 1
	`
	cp, err := s.scanCheckpoint(s.db.QueryRowContext(ctx, query, threadID))
	if err == sql.ErrNoRows {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return cp, nil
}

// History returns every checkpoint persisted for threadID in step-index
// order. Returns ErrNotFound if the thread has never been used.
func (s *SQLiteStore[S]) History(ctx context.Context, threadID string) ([]Checkpoint[S], error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	query := `
		SELECT thread_id, step_index, pending_step, state, updated_at
		FROM thread_checkpoints
		WHERE thread_id = ?
		ORDER BY step_index ASC
	`
	rows, err := s.db.QueryContext(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var history []Checkpoint[S]
	for rows.Next() {
		cp, err := s.scanCheckpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		history = append(history, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}
	if len(history) == 0 {
		return nil, ErrNotFound
	}
	return history, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore[S]) scanCheckpoint(row rowScanner) (Checkpoint[S], error) {
	var (
		cp        Checkpoint[S]
		stateJSON string
		updatedAt string
	)
	if err := row.Scan(&cp.ThreadID, &cp.StepIndex, &cp.PendingStep, &stateJSON, &updatedAt); err != nil {
		return cp, err
	}
	if err := json.Unmarshal([]byte(stateJSON), &cp.State); err != nil {
		return cp, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return cp, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	cp.UpdatedAt = ts
	return cp, nil
}

func (s *SQLiteStore[S]) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}
	return nil
}

// Close closes the database connection. Calling Close twice is a no-op.
func (s *SQLiteStore[S]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *SQLiteStore[S]) Ping(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.PingContext(ctx)
}

// Path returns the database file path.
func (s *SQLiteStore[S]) Path() string {
	return s.path
}
