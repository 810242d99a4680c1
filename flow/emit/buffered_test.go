package emit

import (
	"fmt"
	"sync"
	"testing"
)

func TestBufferedEmitter(t *testing.T) {
	t.Run("history in emission order", func(t *testing.T) {
		b := NewBufferedEmitter()
		for i := 0; i < 3; i++ {
			b.Emit(Event{ThreadID: "t1", StepIndex: i, Msg: "step_start"})
		}

		history := b.History("t1")
		if len(history) != 3 {
			t.Fatalf("history has %d events, want 3", len(history))
		}
		for i, e := range history {
			if e.StepIndex != i {
				t.Errorf("history[%d].StepIndex = %d", i, e.StepIndex)
			}
		}
	})

	t.Run("empty thread", func(t *testing.T) {
		b := NewBufferedEmitter()
		if got := b.History("ghost"); got == nil || len(got) != 0 {
			t.Errorf("History = %v, want empty non-nil slice", got)
		}
	})

	t.Run("threads are separate", func(t *testing.T) {
		b := NewBufferedEmitter()
		b.Emit(Event{ThreadID: "t1", Msg: "step_start"})
		b.Emit(Event{ThreadID: "t2", Msg: "step_start"})

		if len(b.History("t1")) != 1 || len(b.History("t2")) != 1 {
			t.Error("events mixed across threads")
		}
	})

	t.Run("history returns a copy", func(t *testing.T) {
		b := NewBufferedEmitter()
		b.Emit(Event{ThreadID: "t1", Msg: "step_start"})

		history := b.History("t1")
		history[0].Msg = "tampered"

		if b.History("t1")[0].Msg != "step_start" {
			t.Error("external mutation reached the buffer")
		}
	})

	t.Run("filter by message and step", func(t *testing.T) {
		b := NewBufferedEmitter()
		b.Emit(Event{ThreadID: "t1", StepIndex: 0, StepName: "a", Msg: "step_start"})
		b.Emit(Event{ThreadID: "t1", StepIndex: 1, StepName: "a", Msg: "step_end"})
		b.Emit(Event{ThreadID: "t1", StepIndex: 1, StepName: "b", Msg: "step_error"})
		b.Emit(Event{ThreadID: "t1", StepIndex: 2, StepName: "b", Msg: "step_error"})

		errs := b.HistoryWithFilter("t1", HistoryFilter{Msg: "step_error"})
		if len(errs) != 2 {
			t.Errorf("filtered %d events, want 2", len(errs))
		}

		byStep := b.HistoryWithFilter("t1", HistoryFilter{StepName: "a"})
		if len(byStep) != 2 {
			t.Errorf("filtered %d events, want 2", len(byStep))
		}

		minIdx, maxIdx := 1, 1
		ranged := b.HistoryWithFilter("t1", HistoryFilter{MinIndex: &minIdx, MaxIndex: &maxIdx})
		if len(ranged) != 2 {
			t.Errorf("filtered %d events, want 2", len(ranged))
		}

		combined := b.HistoryWithFilter("t1", HistoryFilter{StepName: "b", Msg: "step_error", MinIndex: &minIdx, MaxIndex: &maxIdx})
		if len(combined) != 1 {
			t.Errorf("filtered %d events, want 1", len(combined))
		}
	})

	t.Run("clear one thread", func(t *testing.T) {
		b := NewBufferedEmitter()
		b.Emit(Event{ThreadID: "t1", Msg: "step_start"})
		b.Emit(Event{ThreadID: "t2", Msg: "step_start"})

		b.Clear("t1")
		if len(b.History("t1")) != 0 {
			t.Error("t1 not cleared")
		}
		if len(b.History("t2")) != 1 {
			t.Error("t2 cleared unexpectedly")
		}
	})

	t.Run("clear all", func(t *testing.T) {
		b := NewBufferedEmitter()
		b.Emit(Event{ThreadID: "t1", Msg: "step_start"})
		b.Emit(Event{ThreadID: "t2", Msg: "step_start"})

		b.Clear("")
		if len(b.History("t1")) != 0 || len(b.History("t2")) != 0 {
			t.Error("Clear(\"\") left events behind")
		}
	})

	t.Run("concurrent emit", func(t *testing.T) {
		b := NewBufferedEmitter()
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					b.Emit(Event{ThreadID: fmt.Sprintf("t%d", i), StepIndex: j})
				}
			}(i)
		}
		wg.Wait()

		for i := 0; i < 8; i++ {
			if got := len(b.History(fmt.Sprintf("t%d", i))); got != 10 {
				t.Errorf("thread t%d has %d events, want 10", i, got)
			}
		}
	})
}
