package emit

import "sync"

// BufferedEmitter implements Emitter by storing events in memory.
//
// The emitter captures all events keyed by thread ID and provides query
// capabilities for execution history analysis. Useful in tests and for
// inspecting what a thread did between pauses.
//
// Warning: all events stay in memory. For long-running threads or high
// event volume use a persistent backend or clear threads periodically.
//
// Example usage:
//
//	emitter := emit.NewBufferedEmitter()
//	exec, _ := flow.NewExecutor(g, reducer, st, flow.WithEmitter(emitter))
//
//	exec.Run(ctx, "thread-001", initial)
//
//	all := emitter.History("thread-001")
//	faults := emitter.HistoryWithFilter("thread-001", emit.HistoryFilter{Msg: "step_error"})
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event // threadID -> events
}

// HistoryFilter specifies criteria for filtering execution history.
//
// All fields are optional; set fields combine with AND logic.
type HistoryFilter struct {
	StepName string // Filter by step name (empty = no filter)
	Msg      string // Filter by message (empty = no filter)
	MinIndex *int   // Minimum step index (nil = no filter)
	MaxIndex *int   // Maximum step index (nil = no filter)
}

// NewBufferedEmitter creates a BufferedEmitter. Safe for concurrent use.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{
		events: make(map[string][]Event),
	}
}

// Emit stores an event in the buffer, keyed by its thread ID.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events[event.ThreadID] = append(b.events[event.ThreadID], event)
}

// History retrieves all events for a thread in emission order. Returns
// an empty slice if the thread has no events. The returned slice is a
// copy.
func (b *BufferedEmitter) History(threadID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	events := b.events[threadID]
	if events == nil {
		return []Event{}
	}

	result := make([]Event, len(events))
	copy(result, events)
	return result
}

// HistoryWithFilter retrieves events for a thread matching all set
// filter criteria, in emission order.
func (b *BufferedEmitter) HistoryWithFilter(threadID string, filter HistoryFilter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	events := b.events[threadID]
	if events == nil {
		return []Event{}
	}

	result := []Event{}
	for _, event := range events {
		if b.matchesFilter(event, filter) {
			result = append(result, event)
		}
	}
	return result
}

func (b *BufferedEmitter) matchesFilter(event Event, filter HistoryFilter) bool {
	if filter.StepName != "" && event.StepName != filter.StepName {
		return false
	}
	if filter.Msg != "" && event.Msg != filter.Msg {
		return false
	}
	if filter.MinIndex != nil && event.StepIndex < *filter.MinIndex {
		return false
	}
	if filter.MaxIndex != nil && event.StepIndex > *filter.MaxIndex {
		return false
	}
	return true
}

// Clear removes stored events. A non-empty threadID clears only that
// thread; an empty threadID clears everything.
func (b *BufferedEmitter) Clear(threadID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if threadID == "" {
		b.events = make(map[string][]Event)
	} else {
		delete(b.events, threadID)
	}
}
