package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"
)

// newMySQLStore connects to the database named by TEST_MYSQL_DSN, or
// skips the test when the variable is unset. Example:
//
//	TEST_MYSQL_DSN="user:pass@tcp(localhost:3306)/stepflow_test" go test ./...
func newMySQLStore(t *testing.T) *MySQLStore[map[string]any] {
	t.Helper()
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set; skipping MySQL integration test")
	}

	st, err := NewMySQLStore[map[string]any](dsn)
	if err != nil {
		t.Fatalf("NewMySQLStore failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestMySQLStore(t *testing.T) {
	ctx := context.Background()
	st := newMySQLStore(t)

	// Unique thread IDs keep reruns against a shared database clean.
	threadID := fmt.Sprintf("t-%d", time.Now().UnixNano())

	t.Run("get missing thread", func(t *testing.T) {
		if _, err := st.Get(ctx, threadID+"-ghost"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get = %v, want ErrNotFound", err)
		}
	})

	t.Run("put then get latest", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			cp := Checkpoint[map[string]any]{
				ThreadID:    threadID,
				StepIndex:   i,
				PendingStep: "next",
				State:       map[string]any{"index": float64(i)},
				UpdatedAt:   time.Now().UTC(),
			}
			if err := st.Put(ctx, threadID, cp); err != nil {
				t.Fatalf("Put #%d failed: %v", i, err)
			}
		}

		got, err := st.Get(ctx, threadID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.StepIndex != 2 {
			t.Errorf("StepIndex = %d, want 2", got.StepIndex)
		}
	})

	t.Run("re-put same index overwrites", func(t *testing.T) {
		cp := Checkpoint[map[string]any]{
			ThreadID: threadID, StepIndex: 1, PendingStep: "b",
			State: map[string]any{"v": "second"}, UpdatedAt: time.Now().UTC(),
		}
		if err := st.Put(ctx, threadID, cp); err != nil {
			t.Fatalf("re-put failed: %v", err)
		}

		history, err := st.History(ctx, threadID)
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(history) != 3 {
			t.Fatalf("history has %d rows, want 3", len(history))
		}
		if history[1].State["v"] != "second" {
			t.Errorf("state = %v, want overwritten row", history[1].State)
		}
	})

	t.Run("ping", func(t *testing.T) {
		if err := st.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})
}
