package emit

// NullEmitter implements Emitter by discarding all events.
//
// This is the default emitter when none is configured. It implements
// the Emitter interface but does nothing with emitted events.
//
// Example usage:
//
//	emitter := emit.NewNullEmitter()
//	exec, err := flow.NewExecutor(g, reducer, st, flow.WithEmitter(emitter))
type NullEmitter struct{}

// NewNullEmitter creates a NullEmitter that discards all events.
// It is safe for concurrent use and has zero overhead.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event without any processing.
func (n *NullEmitter) Emit(event Event) {
	// No-op: discard the event
}
