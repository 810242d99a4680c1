package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL/MariaDB implementation of Store[S].
//
// Designed for:
//   - Production workflows requiring persistence
//   - Long-running threads that survive process restarts
//   - Audit trails: every checkpoint row is retained per thread
//
// The engine is the sole writer per thread and serializes its own get+put
// pairs, so the store needs no cross-writer isolation; the unique
// (thread_id, step_index) key makes a retried Put of the same transition
// an idempotent overwrite.
//
// Security: never hardcode credentials. Read the DSN from the
// environment:
//
//	dsn := os.Getenv("MYSQL_DSN")
//	st, err := store.NewMySQLStore[State](dsn)
//
// Type parameter S is the state type to persist (must be
// JSON-serializable).
type MySQLStore[S any] struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewMySQLStore creates a MySQL-backed checkpoint store.
//
// DSN format: [username[:password]@][protocol[(address)]]/dbname[?params]
// e.g. "user:pass@tcp(localhost:3306)/workflows?parseTime=true".
//
// The store configures connection pooling, verifies connectivity, and
// creates its schema on first use.
func NewMySQLStore[S any](dsn string) (*MySQLStore[S], error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	s := &MySQLStore[S]{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (m *MySQLStore[S]) createTables(ctx context.Context) error {
	table := `
		CREATE TABLE IF NOT EXISTS thread_checkpoints (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			thread_id VARCHAR(255) NOT NULL,
			step_index INT NOT NULL,
			pending_step VARCHAR(255) NOT NULL,
			state JSON NOT NULL,
			updated_at VARCHAR(64) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_thread (thread_id),
			INDEX idx_thread_step (thread_id, step_index),
			UNIQUE KEY unique_thread_step (thread_id, step_index)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := m.db.ExecContext(ctx, table); err != nil {
		return fmt.Errorf("failed to create thread_checkpoints table: %w", err)
	}
	return nil
}

// Put stores cp as the latest checkpoint for threadID. A re-put of the
// same step index overwrites that row.
func (m *MySQLStore[S]) Put(ctx context.Context, threadID string, cp Checkpoint[S]) error {
	if err := m.checkOpen(); err != nil {
		return err
	}

	stateJSON, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	query := `
		INSERT INTO thread_checkpoints (thread_id, step_index, pending_step, state, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			pending_step = VALUES(pending_step),
			state = VALUES(state),
			updated_at = VALUES(updated_at)
	`
	_, err = m.db.ExecContext(ctx, query,
		threadID, cp.StepIndex, cp.PendingStep, string(stateJSON),
		cp.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Get returns the checkpoint with the highest step index for threadID,
// or ErrNotFound.
func (m *MySQLStore[S]) Get(ctx context.Context, threadID string) (Checkpoint[S], error) {
	var zero Checkpoint[S]
	if err := m.checkOpen(); err != nil {
		return zero, err
	}

	query := `
		SELECT thread_id, step_index, pending_step, state, updated_at
		FROM thread_checkpoints
		WHERE thread_id = ?
		ORDER BY step_index DESC
		LIMIT 1
	`
	cp, err := m.scanCheckpoint(m.db.QueryRowContext(ctx, query, threadID))
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
func (m *MySQLStore[S]) History(ctx context.Context, threadID string) ([]Checkpoint[S], error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}

	query := `
		SELECT thread_id, step_index, pending_step, state, updated_at
		FROM thread_checkpoints
		WHERE thread_id = ?
		ORDER BY step_index ASC
	`
	rows, err := m.db.QueryContext(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var history []Checkpoint[S]
	for rows.Next() {
		cp, err := m.scanCheckpoint(rows)
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

func (m *MySQLStore[S]) scanCheckpoint(row rowScanner) (Checkpoint[S], error) {
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

func (m *MySQLStore[S]) checkOpen() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return fmt.Errorf("store is closed")
	}
	return nil
}

// Close closes the database connection pool. Calling Close twice is a
// no-op.
func (m *MySQLStore[S]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return m.db.Close()
}

// Ping verifies the database connection is alive.
func (m *MySQLStore[S]) Ping(ctx context.Context) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	return m.db.PingContext(ctx)
}
