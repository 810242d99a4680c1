package flow

import (
	"fmt"

	"github.com/dshills/stepflow-go/flow/emit"
)

// Option is a functional option for configuring an Executor.
//
// Example:
//
//	exec, err := flow.NewExecutor(g, reducer, st,
//	    flow.WithEmitter(emit.NewLogEmitter(os.Stdout, false)),
//	    flow.WithMaxSteps(100),
//	)
type Option func(*executorConfig) error

// executorConfig collects options before they are applied, allowing
// validation and composition.
type executorConfig struct {
	emitter  emit.Emitter
	metrics  *Metrics
	maxSteps int
}

// WithEmitter sets the observability event receiver. Defaults to a
// NullEmitter that discards all events.
func WithEmitter(e emit.Emitter) Option {
	return func(cfg *executorConfig) error {
		if e == nil {
			return fmt.Errorf("emitter cannot be nil")
		}
		cfg.emitter = e
		return nil
	}
}

// WithMetrics attaches Prometheus instrumentation to the executor.
func WithMetrics(m *Metrics) Option {
	return func(cfg *executorConfig) error {
		cfg.metrics = m
		return nil
	}
}

// WithMaxSteps bounds the number of step executions in a single Run or
// Resume call. Linear workflows never need this; set it when rebinding or
// graph edits could accidentally introduce a cycle.
//
// Default: 0 (no limit). When exceeded, the scheduling call returns
// ErrMaxStepsExceeded without persisting further checkpoints.
func WithMaxSteps(n int) Option {
	return func(cfg *executorConfig) error {
		if n < 0 {
			return fmt.Errorf("max steps cannot be negative: %d", n)
		}
		cfg.maxSteps = n
		return nil
	}
}
