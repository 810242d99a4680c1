package emit

// Emitter receives and processes observability events from workflow execution.
//
// Emitters enable pluggable observability backends:
//   - Logging: stdout, files, syslog
//   - Distributed tracing: OpenTelemetry
//   - Test capture: buffered in-memory emitters
//
// Implementations should be:
//   - Non-blocking: Avoid slowing down workflow execution
//   - Thread-safe: May be called concurrently from multiple threads
//   - Resilient: Handle failures gracefully (don't crash the workflow)
type Emitter interface {
	// Emit sends an observability event to the configured backend.
	//
	// Emit should not panic. Errors should be handled internally.
	Emit(event Event)
}
