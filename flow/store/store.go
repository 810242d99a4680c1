// Package store provides checkpoint persistence for workflow threads.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when a thread ID has never been used.
var ErrNotFound = errors.New("not found")

// Checkpoint is the durable unit of the engine: a snapshot of a thread's
// state plus the step that has not yet executed. The engine is paused
// immediately before PendingStep; an empty PendingStep means the workflow
// completed.
//
// Checkpoints for a thread form a monotonic sequence by StepIndex. The
// engine never deletes checkpoints; retention is a store and caller
// concern.
type Checkpoint[S any] struct {
	// ThreadID identifies the execution lineage this checkpoint belongs to.
	ThreadID string `json:"thread_id"`

	// StepIndex counts persisted transitions: 0 for the initial
	// checkpoint, incremented by each step execution and each external
	// state update.
	StepIndex int `json:"step_index"`

	// PendingStep names the step that has not yet executed. Empty when
	// the workflow has reached a terminal step.
	PendingStep string `json:"pending_step"`

	// State is the accumulated workflow state. Must be JSON-serializable
	// for durable stores.
	State S `json:"state"`

	// UpdatedAt records when this checkpoint was persisted.
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists the latest checkpoint per thread.
//
// The engine is the sole writer per thread ID and serializes its get+put
// pairs, so implementations need durability of the last successful Put
// before any observable Get success — not multi-writer isolation.
// Implementations may retain history for audit; Get always returns the
// latest checkpoint.
//
// Implementations provided:
//   - MemStore: in-memory, for tests and short-lived workflows
//   - SQLiteStore: single-file durable store with history
//   - MySQLStore: production store with history and pooling
//
// Type parameter S is the state type to persist.
type Store[S any] interface {
	// Put stores cp as the new latest checkpoint for threadID,
	// overwriting any previous latest.
	Put(ctx context.Context, threadID string, cp Checkpoint[S]) error

	// Get returns the latest checkpoint for threadID, or ErrNotFound if
	// the thread has never been used.
	Get(ctx context.Context, threadID string) (Checkpoint[S], error)
}
