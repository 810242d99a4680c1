package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemStore is an in-memory implementation of Store[S].
//
// Designed for:
//   - Testing and development
//   - Single-process workflows
//   - Short-lived workflows where persistence isn't required
//
// MemStore is thread-safe. Data is lost when the process terminates; for
// durable checkpoints use SQLiteStore or MySQLStore.
//
// Type parameter S is the state type to persist.
type MemStore[S any] struct {
	mu     sync.RWMutex
	latest map[string]Checkpoint[S]
}

// NewMemStore creates a new in-memory checkpoint store.
func NewMemStore[S any]() *MemStore[S] {
	return &MemStore[S]{
		latest: make(map[string]Checkpoint[S]),
	}
}

// Put stores cp as the latest checkpoint for threadID.
func (m *MemStore[S]) Put(_ context.Context, threadID string, cp Checkpoint[S]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest[threadID] = cp
	return nil
}

// Get returns the latest checkpoint for threadID, or ErrNotFound.
func (m *MemStore[S]) Get(_ context.Context, threadID string) (Checkpoint[S], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp, ok := m.latest[threadID]
	if !ok {
		var zero Checkpoint[S]
		return zero, ErrNotFound
	}
	return cp, nil
}

// Threads returns the thread IDs with at least one checkpoint. Useful in
// tests and diagnostics.
func (m *MemStore[S]) Threads() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.latest))
	for id := range m.latest {
		ids = append(ids, id)
	}
	return ids
}

// MarshalJSON serializes the store contents. State values must be
// JSON-serializable. Useful for dumping a development store to disk.
func (m *MemStore[S]) MarshalJSON() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return json.Marshal(m.latest)
}

// UnmarshalJSON replaces the store contents with previously serialized
// data. Existing checkpoints are discarded.
func (m *MemStore[S]) UnmarshalJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest map[string]Checkpoint[S]
	if err := json.Unmarshal(data, &latest); err != nil {
		return err
	}
	if latest == nil {
		latest = make(map[string]Checkpoint[S])
	}
	m.latest = latest
	return nil
}
