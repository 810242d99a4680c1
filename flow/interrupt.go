package flow

import "sort"

// InterruptController tracks which step names are configured as
// breakpoints. It is built at graph-compile time and consulted by the
// executor once per scheduling attempt, immediately before entering the
// pending step. Halting is a property of "about to execute this pending
// step", not a persistent flag on the step: once UpdateState moves the
// pending pointer past a breakpoint, the controller is not consulted for
// that step again on that thread.
type InterruptController struct {
	names map[string]struct{}
}

// NewInterruptController creates a controller for the given breakpoint
// step names.
func NewInterruptController(names ...string) *InterruptController {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return &InterruptController{names: set}
}

// HaltBefore reports whether execution must pause before entering name.
func (ic *InterruptController) HaltBefore(name string) bool {
	_, ok := ic.names[name]
	return ok
}

// Names returns the configured breakpoint names in sorted order.
func (ic *InterruptController) Names() []string {
	out := make([]string, 0, len(ic.names))
	for n := range ic.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
