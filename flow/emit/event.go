package emit

// Event represents an observability event emitted during workflow execution.
//
// Events provide detailed insight into engine behavior:
//   - Step execution start/end
//   - State updates injected between steps
//   - Run completion and pauses at breakpoints
//   - Errors surfaced by step handlers
//
// Events are emitted to an Emitter which can:
//   - Log to stdout/stderr
//   - Send to OpenTelemetry
//   - Buffer for later inspection
type Event struct {
	// ThreadID identifies the workflow thread that emitted this event.
	ThreadID string

	// StepIndex is the checkpoint index at the time of the event.
	StepIndex int

	// StepName identifies which step the event concerns.
	// Empty string for thread-level events (run_completed, run_paused).
	StepName string

	// Msg is a short machine-friendly event name, e.g. "step_start".
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys:
	//   - "duration_ms": Step execution duration in milliseconds
	//   - "error": Error details
	//   - "as_step": Step a state update was attributed to
	Meta map[string]interface{}
}
