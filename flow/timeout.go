package flow

import (
	"context"
	"fmt"
	"time"
)

// WithStepTimeout wraps a step so each invocation runs under a deadline.
//
// The engine itself has no internal timeout: a step performing blocking
// I/O blocks the scheduling loop until it returns. Callers wanting a bound
// wrap the step at graph-construction time:
//
//	g.Define("fetch_quote", flow.WithStepTimeout(quoteStep, 10*time.Second))
//
// When the deadline expires the wrapped step observes context
// cancellation; if it returns after the deadline without its own error,
// the result is replaced with a timeout fault so the checkpoint does not
// advance on partial work.
func WithStepTimeout[S any](step Step[S], timeout time.Duration) Step[S] {
	if timeout <= 0 {
		return step
	}

	return StepFunc[S](func(ctx context.Context, state S) StepResult[S] {
		tctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		result := step.Run(tctx, state)
		if result.Err == nil && tctx.Err() == context.DeadlineExceeded {
			return StepResult[S]{Err: fmt.Errorf("step exceeded timeout of %v: %w", timeout, context.DeadlineExceeded)}
		}
		return result
	})
}
