package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newSQLiteStore(t *testing.T) *SQLiteStore[map[string]any] {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checkpoints.db")
	st, err := NewSQLiteStore[map[string]any](path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()

	t.Run("get missing thread", func(t *testing.T) {
		st := newSQLiteStore(t)
		if _, err := st.Get(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get = %v, want ErrNotFound", err)
		}
	})

	t.Run("put then get latest", func(t *testing.T) {
		st := newSQLiteStore(t)
		for i := 0; i < 3; i++ {
			cp := Checkpoint[map[string]any]{
				ThreadID:    "t1",
				StepIndex:   i,
				PendingStep: "next",
				State:       map[string]any{"index": float64(i)},
				UpdatedAt:   time.Now().UTC(),
			}
			if err := st.Put(ctx, "t1", cp); err != nil {
				t.Fatalf("Put #%d failed: %v", i, err)
			}
		}

		got, err := st.Get(ctx, "t1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.StepIndex != 2 {
			t.Errorf("StepIndex = %d, want latest (2)", got.StepIndex)
		}
		if got.State["index"] != 2.0 {
			t.Errorf("state = %v", got.State)
		}
	})

	t.Run("re-put same index overwrites", func(t *testing.T) {
		st := newSQLiteStore(t)
		cp := Checkpoint[map[string]any]{
			ThreadID: "t1", StepIndex: 1, PendingStep: "b",
			State: map[string]any{"v": "first"}, UpdatedAt: time.Now().UTC(),
		}
		if err := st.Put(ctx, "t1", cp); err != nil {
			t.Fatal(err)
		}
		cp.State = map[string]any{"v": "second"}
		if err := st.Put(ctx, "t1", cp); err != nil {
			t.Fatalf("re-put failed: %v", err)
		}

		history, err := st.History(ctx, "t1")
		if err != nil {
			t.Fatal(err)
		}
		if len(history) != 1 {
			t.Fatalf("history has %d rows, want 1", len(history))
		}
		if history[0].State["v"] != "second" {
			t.Errorf("state = %v, want overwrite", history[0].State)
		}
	})

	t.Run("history in order", func(t *testing.T) {
		st := newSQLiteStore(t)
		steps := []string{"a", "b", ""}
		for i, pending := range steps {
			cp := Checkpoint[map[string]any]{
				ThreadID: "t1", StepIndex: i, PendingStep: pending,
				State: map[string]any{}, UpdatedAt: time.Now().UTC(),
			}
			if err := st.Put(ctx, "t1", cp); err != nil {
				t.Fatal(err)
			}
		}

		history, err := st.History(ctx, "t1")
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(history) != 3 {
			t.Fatalf("history has %d rows, want 3", len(history))
		}
		for i, cp := range history {
			if cp.StepIndex != i {
				t.Errorf("history[%d].StepIndex = %d", i, cp.StepIndex)
			}
			if cp.PendingStep != steps[i] {
				t.Errorf("history[%d].PendingStep = %q, want %q", i, cp.PendingStep, steps[i])
			}
		}
	})

	t.Run("history for unknown thread", func(t *testing.T) {
		st := newSQLiteStore(t)
		if _, err := st.History(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
			t.Errorf("History = %v, want ErrNotFound", err)
		}
	})

	t.Run("thread isolation", func(t *testing.T) {
		st := newSQLiteStore(t)
		for _, id := range []string{"t1", "t2"} {
			cp := Checkpoint[map[string]any]{
				ThreadID: id, StepIndex: 0, PendingStep: "a",
				State: map[string]any{"owner": id}, UpdatedAt: time.Now().UTC(),
			}
			if err := st.Put(ctx, id, cp); err != nil {
				t.Fatal(err)
			}
		}
		got, err := st.Get(ctx, "t2")
		if err != nil {
			t.Fatal(err)
		}
		if got.State["owner"] != "t2" {
			t.Errorf("t2 state = %v", got.State)
		}
	})

	t.Run("persists across reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "checkpoints.db")
		st, err := NewSQLiteStore[map[string]any](path)
		if err != nil {
			t.Fatal(err)
		}
		cp := Checkpoint[map[string]any]{
			ThreadID: "t1", StepIndex: 5, PendingStep: "resume_here",
			State: map[string]any{"k": "v"}, UpdatedAt: time.Now().UTC(),
		}
		if err := st.Put(ctx, "t1", cp); err != nil {
			t.Fatal(err)
		}
		if err := st.Close(); err != nil {
			t.Fatal(err)
		}

		reopened, err := NewSQLiteStore[map[string]any](path)
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		defer func() { _ = reopened.Close() }()

		got, err := reopened.Get(ctx, "t1")
		if err != nil {
			t.Fatalf("Get after reopen failed: %v", err)
		}
		if got.PendingStep != "resume_here" || got.StepIndex != 5 {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("closed store rejects operations", func(t *testing.T) {
		st := newSQLiteStore(t)
		if err := st.Close(); err != nil {
			t.Fatal(err)
		}
		if err := st.Close(); err != nil {
			t.Errorf("second Close = %v, want nil", err)
		}
		if err := st.Put(ctx, "t1", Checkpoint[map[string]any]{}); err == nil {
			t.Error("Put on closed store succeeded")
		}
		if _, err := st.Get(ctx, "t1"); err == nil {
			t.Error("Get on closed store succeeded")
		}
	})
}
