package flow

import (
	"errors"
	"fmt"
)

// ErrGraphInvalid indicates a structural misconfiguration detected at
// graph-compile time: a dangling edge to an unregistered step, a step with
// multiple outgoing edges, a duplicate registration, or a missing START
// edge. It is fatal and caught before any run.
var ErrGraphInvalid = errors.New("graph invalid")

// ErrUnknownThread indicates an operation referenced a thread ID with no
// checkpoint. Recoverable: the caller must establish the thread with Run
// before calling Resume, UpdateState, or GetState.
var ErrUnknownThread = errors.New("unknown thread")

// ErrStepNotPending is returned by UpdateState when the attributed step is
// not the thread's currently pending step. Attribution to a step other
// than the pending one is a caller error; the engine does not guess
// broader semantics for out-of-order updates.
var ErrStepNotPending = errors.New("step is not pending")

// ErrMaxStepsExceeded indicates a single scheduling call executed more
// steps than the configured limit without completing or pausing. This
// guards against accidental cycles in otherwise linear workflows.
var ErrMaxStepsExceeded = errors.New("execution exceeded maximum steps limit")

// StepError reports a fault raised by a step invocation. The scheduling
// loop aborts without persisting a new checkpoint, so the prior checkpoint
// remains the latest and a retried Resume re-executes the same step from
// the same input state.
type StepError struct {
	// Step is the name of the step that faulted.
	Step string

	// Err is the underlying fault.
	Err error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

// Unwrap returns the underlying fault for errors.Is/As matching.
func (e *StepError) Unwrap() error {
	return e.Err
}

// StoreError reports a checkpoint persistence failure. It is surfaced
// as-is; the engine does not buffer or retry internally — retry policy is
// a caller and store concern.
type StoreError struct {
	// Op is the failing store operation ("get" or "put").
	Op string

	// ThreadID is the thread whose checkpoint was being accessed.
	ThreadID string

	// Err is the underlying persistence error.
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("checkpoint store %s for thread %s: %v", e.Op, e.ThreadID, e.Err)
}

// Unwrap returns the underlying persistence error.
func (e *StoreError) Unwrap() error {
	return e.Err
}
