// Package flow implements a checkpointed step-execution engine for directed
// workflows: named steps advance a shared state, a checkpoint is persisted
// after every step, and execution can pause immediately before designated
// breakpoint steps so an external actor can inspect and overwrite the state
// before resuming.
package flow

import (
	"fmt"
	"sync"
)

// Start is the pseudo-step marking the workflow entry point. It carries no
// implementation; its single outgoing edge designates the first real step.
const Start = "__start__"

// edge is a directed connection recorded during graph construction.
// Structural validation is deferred to Compile.
type edge struct {
	from string
	to   string
}

// Graph holds the steps of a workflow and the successor relation between
// them. Build it with Define and Connect, then Compile it before handing it
// to an Executor. After a successful Compile the executor trusts the graph:
// every reachable step has exactly one successor or is terminal.
//
// Type parameter S is the state type shared across the workflow.
type Graph[S any] struct {
	mu         sync.RWMutex
	steps      map[string]Step[S]
	edges      []edge
	successors map[string]string
	entry      string
	compiled   bool
	interrupts *InterruptController
}

// NewGraph creates an empty workflow graph.
func NewGraph[S any]() *Graph[S] {
	return &Graph[S]{
		steps: make(map[string]Step[S]),
	}
}

// Define registers a step under a unique name.
//
// Returns an error if the name is empty or Start, the step is nil, or the
// name is already registered. Use RegisterStep to swap the implementation
// of an existing name.
func (g *Graph[S]) Define(name string, step Step[S]) error {
	if name == "" || name == Start {
		return fmt.Errorf("%w: step name %q is reserved", ErrGraphInvalid, name)
	}
	if step == nil {
		return fmt.Errorf("%w: step %q is nil", ErrGraphInvalid, name)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.steps[name]; exists {
		return fmt.Errorf("%w: duplicate step %q", ErrGraphInvalid, name)
	}
	g.steps[name] = step
	return nil
}

// RegisterStep rebinds the implementation of an already defined step.
// This is the only sanctioned way to swap a step's implementation; the
// graph topology is unaffected.
//
// Returns an error if the name has not been defined or the step is nil.
func (g *Graph[S]) RegisterStep(name string, step Step[S]) error {
	if step == nil {
		return fmt.Errorf("%w: step %q is nil", ErrGraphInvalid, name)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.steps[name]; !exists {
		return fmt.Errorf("%w: cannot rebind unknown step %q", ErrGraphInvalid, name)
	}
	g.steps[name] = step
	return nil
}

// Connect adds a directed edge between two steps. The from name may be
// Start, which designates the entry edge. Endpoint existence and edge
// multiplicity are validated at Compile, not here, to allow flexible
// construction order.
func (g *Graph[S]) Connect(from, to string) error {
	if from == "" {
		return fmt.Errorf("%w: from step name cannot be empty", ErrGraphInvalid)
	}
	if to == "" || to == Start {
		return fmt.Errorf("%w: invalid edge target %q", ErrGraphInvalid, to)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.edges = append(g.edges, edge{from: from, to: to})
	return nil
}

// Compile validates the graph structure and freezes it for execution.
//
// Validation rules:
//   - Start has exactly one outgoing edge (the entry edge)
//   - every edge endpoint other than Start names a registered step
//   - no step has more than one outgoing edge
//   - breakpoint names passed via WithInterruptBefore are registered steps
//
// A step with no outgoing edge is terminal. Compile is the only place
// structural errors surface; all failures wrap ErrGraphInvalid.
func (g *Graph[S]) Compile(opts ...CompileOption) error {
	cfg := compileConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	successors := make(map[string]string, len(g.edges))
	entry := ""

	for _, e := range g.edges {
		if e.from != Start {
			if _, ok := g.steps[e.from]; !ok {
				return fmt.Errorf("%w: edge from unregistered step %q", ErrGraphInvalid, e.from)
			}
		}
		if _, ok := g.steps[e.to]; !ok {
			return fmt.Errorf("%w: edge to unregistered step %q", ErrGraphInvalid, e.to)
		}

		if e.from == Start {
			if entry != "" {
				return fmt.Errorf("%w: START has multiple outgoing edges (%q and %q)", ErrGraphInvalid, entry, e.to)
			}
			entry = e.to
			continue
		}

		if prev, ok := successors[e.from]; ok {
			return fmt.Errorf("%w: step %q has multiple outgoing edges (%q and %q)", ErrGraphInvalid, e.from, prev, e.to)
		}
		successors[e.from] = e.to
	}

	if entry == "" {
		return fmt.Errorf("%w: missing START edge", ErrGraphInvalid)
	}

	for _, name := range cfg.breakpoints {
		if _, ok := g.steps[name]; !ok {
			return fmt.Errorf("%w: breakpoint %q is not a registered step", ErrGraphInvalid, name)
		}
	}

	g.successors = successors
	g.entry = entry
	g.interrupts = NewInterruptController(cfg.breakpoints...)
	g.compiled = true
	return nil
}

// Entry returns the first step after Start. Empty until Compile succeeds.
func (g *Graph[S]) Entry() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.entry
}

// Successor returns the designated next step after name. The second return
// is false for terminal steps (no outgoing edge).
func (g *Graph[S]) Successor(name string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	next, ok := g.successors[name]
	return next, ok
}

// Interrupts returns the breakpoint controller built at compile time.
// Returns a controller with no breakpoints if the graph is not compiled.
func (g *Graph[S]) Interrupts() *InterruptController {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.interrupts == nil {
		return NewInterruptController()
	}
	return g.interrupts
}

// Compiled reports whether Compile has succeeded.
func (g *Graph[S]) Compiled() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.compiled
}

// step returns the implementation registered under name.
func (g *Graph[S]) step(name string) (Step[S], bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.steps[name]
	return s, ok
}

// defined reports whether name is a registered step.
func (g *Graph[S]) defined(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.steps[name]
	return ok
}

// CompileOption configures graph compilation.
type CompileOption func(*compileConfig)

type compileConfig struct {
	breakpoints []string
}

// WithInterruptBefore designates steps as breakpoints: execution halts
// immediately before each named step, returning a Paused outcome, so an
// external actor can inspect and update the thread state before resuming.
func WithInterruptBefore(names ...string) CompileOption {
	return func(cfg *compileConfig) {
		cfg.breakpoints = append(cfg.breakpoints, names...)
	}
}
