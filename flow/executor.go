package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/stepflow-go/flow/emit"
	"github.com/dshills/stepflow-go/flow/store"
)

// Executor schedules a compiled graph over checkpointed threads.
//
// The executor walks the graph from a thread's resume point, invokes steps
// in order, persists a checkpoint after each, and halts at breakpoints or
// graph completion. A thread is a logical execution lineage identified by
// an opaque caller-supplied key; distinct threads are fully independent.
//
// Scheduling is sequential and synchronous per thread: no step of a thread
// runs concurrently with another step of the same thread. Distinct threads
// may be driven concurrently; the executor serializes the get+put pair per
// thread with a per-key lock.
//
// Example:
//
//	g := flow.NewGraph[flow.MapState]()
//	g.Define("human_input", inputStep)
//	g.Define("process", processStep)
//	g.Connect(flow.Start, "human_input")
//	g.Connect("human_input", "process")
//	if err := g.Compile(flow.WithInterruptBefore("human_input")); err != nil {
//	    log.Fatal(err)
//	}
//
//	exec, err := flow.NewExecutor(g, flow.MergeMaps, store.NewMemStore[flow.MapState]())
//	out, err := exec.Run(ctx, "thread-1", flow.MapState{"user_input": "", "output": ""})
//	// out.Paused() with out.PendingStep == "human_input"
//
//	err = exec.UpdateState(ctx, "thread-1", flow.MapState{"user_input": "hello"}, "human_input")
//	out, err = exec.Resume(ctx, "thread-1")
//	// out.Completed with the processed state
type Executor[S any] struct {
	graph   *Graph[S]
	reducer Reducer[S]
	store   store.Store[S]
	emitter emit.Emitter
	metrics *Metrics

	// maxSteps bounds step executions within one scheduling call; 0 = no limit.
	maxSteps int

	mu      sync.Mutex
	threads map[string]*sync.Mutex
}

// RunOutcome is the tagged result of a scheduling call: either the
// workflow completed, or it paused immediately before a breakpoint step.
type RunOutcome[S any] struct {
	// State is the final state on completion, or the current state at the
	// pause point. A paused state has not been touched by the pending step.
	State S

	// PendingStep names the breakpoint step the engine is paused before.
	// Empty on completion.
	PendingStep string

	// Completed is true when the workflow reached a terminal step.
	Completed bool
}

// Paused reports whether the outcome is a breakpoint halt.
func (o RunOutcome[S]) Paused() bool {
	return !o.Completed
}

// NewExecutor creates an executor for a compiled graph.
//
// The reducer merges step deltas into state and must honor the additive
// merge invariant (see Reducer). The store persists one checkpoint per
// thread; it is the engine's only persisted artifact.
func NewExecutor[S any](g *Graph[S], reducer Reducer[S], st store.Store[S], opts ...Option) (*Executor[S], error) {
	if g == nil || !g.Compiled() {
		return nil, fmt.Errorf("%w: graph must be compiled before execution", ErrGraphInvalid)
	}
	if reducer == nil {
		return nil, fmt.Errorf("reducer is required")
	}
	if st == nil {
		return nil, fmt.Errorf("checkpoint store is required")
	}

	cfg := executorConfig{emitter: emit.NewNullEmitter()}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &Executor[S]{
		graph:    g,
		reducer:  reducer,
		store:    st,
		emitter:  cfg.emitter,
		metrics:  cfg.metrics,
		maxSteps: cfg.maxSteps,
		threads:  make(map[string]*sync.Mutex),
	}, nil
}

// Run starts or continues a thread.
//
// If the store has no checkpoint for threadID, Run persists an initial
// checkpoint {stepIndex: 0, pendingStep: entry, state: initial} and then
// behaves as Resume. If the thread already exists, initial is ignored and
// Run is exactly Resume — re-running a completed thread returns Completed
// with the stored final state and executes nothing.
func (x *Executor[S]) Run(ctx context.Context, threadID string, initial S) (RunOutcome[S], error) {
	var zero RunOutcome[S]
	if threadID == "" {
		return zero, fmt.Errorf("%w: empty thread ID", ErrUnknownThread)
	}

	unlock := x.lockThread(threadID)
	defer unlock()

	_, err := x.store.Get(ctx, threadID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		cp := store.Checkpoint[S]{
			ThreadID:    threadID,
			StepIndex:   0,
			PendingStep: x.graph.Entry(),
			State:       initial,
			UpdatedAt:   time.Now().UTC(),
		}
		if err := x.store.Put(ctx, threadID, cp); err != nil {
			return zero, &StoreError{Op: "put", ThreadID: threadID, Err: err}
		}
		x.metrics.observeCheckpointWrite()
		x.emitter.Emit(emit.Event{
			ThreadID: threadID,
			StepName: cp.PendingStep,
			Msg:      "thread_started",
		})
	case err != nil:
		return zero, &StoreError{Op: "get", ThreadID: threadID, Err: err}
	}

	return x.resumeLocked(ctx, threadID)
}

// Resume continues a thread from its most recently persisted checkpoint.
// Fails with ErrUnknownThread if the thread was never run.
func (x *Executor[S]) Resume(ctx context.Context, threadID string) (RunOutcome[S], error) {
	unlock := x.lockThread(threadID)
	defer unlock()
	return x.resumeLocked(ctx, threadID)
}

// resumeLocked is the scheduling loop. The caller holds the thread lock.
//
// Loop invariant: the latest persisted checkpoint always names the step
// that has not yet executed. A step fault or store failure aborts the loop
// without persisting, so a retried Resume re-executes the same step from
// the same input state; the engine's bookkeeping only advances on success.
func (x *Executor[S]) resumeLocked(ctx context.Context, threadID string) (RunOutcome[S], error) {
	var zero RunOutcome[S]

	cp, err := x.store.Get(ctx, threadID)
	if errors.Is(err, store.ErrNotFound) {
		return zero, fmt.Errorf("%w: %s", ErrUnknownThread, threadID)
	}
	if err != nil {
		return zero, &StoreError{Op: "get", ThreadID: threadID, Err: err}
	}

	x.metrics.threadActive(1)
	defer x.metrics.threadActive(-1)

	executed := 0
	interrupts := x.graph.Interrupts()

	for {
		name := cp.PendingStep
		if name == "" {
			x.emitter.Emit(emit.Event{
				ThreadID:  threadID,
				StepIndex: cp.StepIndex,
				Msg:       "run_completed",
			})
			return RunOutcome[S]{State: cp.State, Completed: true}, nil
		}

		// Breakpoint check, once per scheduling attempt, always against
		// the pending step. The checkpoint is left unchanged; the only way
		// past is UpdateState attributing a delta to the pending step.
		if interrupts.HaltBefore(name) {
			x.metrics.observePause(name)
			x.emitter.Emit(emit.Event{
				ThreadID:  threadID,
				StepIndex: cp.StepIndex,
				StepName:  name,
				Msg:       "paused",
			})
			return RunOutcome[S]{State: cp.State, PendingStep: name}, nil
		}

		if err := ctx.Err(); err != nil {
			return zero, err
		}

		executed++
		if x.maxSteps > 0 && executed > x.maxSteps {
			return zero, fmt.Errorf("%w: %d steps in one call", ErrMaxStepsExceeded, x.maxSteps)
		}

		impl, ok := x.graph.step(name)
		if !ok {
			return zero, fmt.Errorf("%w: pending step %q is not registered", ErrGraphInvalid, name)
		}

		// The step receives a copy: mutating its input must not corrupt
		// the state the checkpoint owns.
		input, err := deepCopy(cp.State)
		if err != nil {
			return zero, &StepError{Step: name, Err: err}
		}

		x.emitter.Emit(emit.Event{
			ThreadID:  threadID,
			StepIndex: cp.StepIndex,
			StepName:  name,
			Msg:       "step_start",
		})

		start := time.Now()
		result := impl.Run(ctx, input)
		elapsed := time.Since(start)
		x.metrics.observeStep(name, elapsed, result.Err)

		if result.Err != nil {
			x.emitter.Emit(emit.Event{
				ThreadID:  threadID,
				StepIndex: cp.StepIndex,
				StepName:  name,
				Msg:       "step_error",
				Meta:      map[string]any{"error": result.Err.Error()},
			})
			return zero, &StepError{Step: name, Err: result.Err}
		}

		next, _ := x.graph.Successor(name)
		cp = store.Checkpoint[S]{
			ThreadID:    threadID,
			StepIndex:   cp.StepIndex + 1,
			PendingStep: next,
			State:       x.reducer(cp.State, result.Delta),
			UpdatedAt:   time.Now().UTC(),
		}
		if err := x.store.Put(ctx, threadID, cp); err != nil {
			return zero, &StoreError{Op: "put", ThreadID: threadID, Err: err}
		}
		x.metrics.observeCheckpointWrite()

		x.emitter.Emit(emit.Event{
			ThreadID:  threadID,
			StepIndex: cp.StepIndex,
			StepName:  name,
			Msg:       "step_end",
			Meta:      map[string]any{"duration_ms": elapsed.Milliseconds(), "next": next},
		})
	}
}

// UpdateState merges an externally supplied delta into a thread's state,
// attributed to asStep as if that step had just produced it: the merge is
// exactly a step-output merge, and the pending pointer advances to
// asStep's successor, so a following Resume continues at whatever step
// normally follows asStep.
//
// Attribution is defined only for the currently pending step. Any other
// asStep — an earlier step, a later step, or an unregistered name —
// returns ErrStepNotPending. Fails with ErrUnknownThread if the thread
// was never run.
func (x *Executor[S]) UpdateState(ctx context.Context, threadID string, delta S, asStep string) error {
	unlock := x.lockThread(threadID)
	defer unlock()

	cp, err := x.store.Get(ctx, threadID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrUnknownThread, threadID)
	}
	if err != nil {
		return &StoreError{Op: "get", ThreadID: threadID, Err: err}
	}

	if !x.graph.defined(asStep) {
		return fmt.Errorf("%w: %q is not a registered step", ErrStepNotPending, asStep)
	}
	if cp.PendingStep == "" || asStep != cp.PendingStep {
		return fmt.Errorf("%w: %q (pending: %q)", ErrStepNotPending, asStep, cp.PendingStep)
	}

	next, _ := x.graph.Successor(asStep)
	cp = store.Checkpoint[S]{
		ThreadID:    threadID,
		StepIndex:   cp.StepIndex + 1,
		PendingStep: next,
		State:       x.reducer(cp.State, delta),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := x.store.Put(ctx, threadID, cp); err != nil {
		return &StoreError{Op: "put", ThreadID: threadID, Err: err}
	}
	x.metrics.observeCheckpointWrite()

	x.emitter.Emit(emit.Event{
		ThreadID:  threadID,
		StepIndex: cp.StepIndex,
		StepName:  asStep,
		Msg:       "state_updated",
		Meta:      map[string]any{"next": next},
	})
	return nil
}

// GetState returns a thread's latest checkpoint: its state, the step it
// is paused before (empty if complete), and the step index. Fails with
// ErrUnknownThread if the thread was never run.
func (x *Executor[S]) GetState(ctx context.Context, threadID string) (store.Checkpoint[S], error) {
	var zero store.Checkpoint[S]

	unlock := x.lockThread(threadID)
	defer unlock()

	cp, err := x.store.Get(ctx, threadID)
	if errors.Is(err, store.ErrNotFound) {
		return zero, fmt.Errorf("%w: %s", ErrUnknownThread, threadID)
	}
	if err != nil {
		return zero, &StoreError{Op: "get", ThreadID: threadID, Err: err}
	}
	return cp, nil
}

// lockThread acquires the per-thread mutex, creating it on first use.
// Thread mutexes are never removed; the map grows with distinct thread
// IDs driven through this executor instance.
func (x *Executor[S]) lockThread(threadID string) func() {
	x.mu.Lock()
	m, ok := x.threads[threadID]
	if !ok {
		m = &sync.Mutex{}
		x.threads[threadID] = m
	}
	x.mu.Unlock()

	m.Lock()
	return m.Unlock
}
