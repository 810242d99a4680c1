package flow

import "context"

// Step is a single named unit of work in a workflow graph.
// It receives the current state, performs its work, and returns a partial
// state update to be merged by the reducer.
//
// Steps are opaque to the engine: they may call LLMs, query databases, or
// invoke tools, but the engine only cares about the returned delta. Steps
// must keep any state they need inside the State parameter; they are
// stateless between invocations.
//
// Type parameter S is the state type shared across the workflow.
type Step[S any] interface {
	// Run executes the step's logic with the given context and state.
	// The returned StepResult carries the partial state update and any
	// error encountered.
	Run(ctx context.Context, state S) StepResult[S]
}

// StepResult is the output of a step execution.
type StepResult[S any] struct {
	// Delta is the partial state update produced by this step.
	// It is merged into the current state via the configured reducer;
	// fields absent from the delta are preserved.
	Delta S

	// Err reports a step fault. A non-nil Err aborts the scheduling loop
	// without persisting a new checkpoint, so a later Resume re-executes
	// this step from the same input state.
	Err error
}

// StepFunc adapts a plain function to the Step interface.
//
// Example:
//
//	check := flow.StepFunc[Inventory](func(ctx context.Context, s Inventory) flow.StepResult[Inventory] {
//	    return flow.StepResult[Inventory]{Delta: Inventory{Checked: true}}
//	})
type StepFunc[S any] func(ctx context.Context, state S) StepResult[S]

// Run implements the Step interface for StepFunc.
func (f StepFunc[S]) Run(ctx context.Context, state S) StepResult[S] {
	return f(ctx, state)
}

// Reducer merges a step's partial update into the previous state and
// returns the merged state.
//
// Reducers must be additive: fields of prev not touched by delta are
// preserved, never removed. The engine relies on this invariant for
// UpdateState, which merges an externally supplied delta exactly as a
// step's output would be merged.
//
// Reducers should be pure and deterministic; they may be called on a copy
// of the persisted state at any time.
type Reducer[S any] func(prev, delta S) S
