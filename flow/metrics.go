package flow

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides Prometheus instrumentation for executor activity.
//
// Metrics exposed (all namespaced "stepflow"):
//   - steps_total (counter): step executions, labeled step and status
//     (success/error).
//   - step_latency_ms (histogram): step execution duration, labeled step.
//   - pauses_total (counter): breakpoint halts, labeled step.
//   - checkpoint_writes_total (counter): successful checkpoint puts.
//   - active_threads (gauge): threads currently inside a scheduling call.
//
// Expose the registry over HTTP for scraping:
//
//	registry := prometheus.NewRegistry()
//	metrics := flow.NewMetrics(registry)
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
//
// All methods are nil-safe: a nil *Metrics records nothing.
type Metrics struct {
	steps            *prometheus.CounterVec
	stepLatency      *prometheus.HistogramVec
	pauses           *prometheus.CounterVec
	checkpointWrites prometheus.Counter
	activeThreads    prometheus.Gauge
}

// NewMetrics creates and registers executor metrics with the given
// registry. Pass prometheus.DefaultRegisterer to use the global registry,
// or a fresh prometheus.NewRegistry for isolation.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stepflow",
			Name:      "steps_total",
			Help:      "Total step executions by step name and status.",
		}, []string{"step", "status"}),
		stepLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stepflow",
			Name:      "step_latency_ms",
			Help:      "Step execution duration in milliseconds.",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}, []string{"step"}),
		pauses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stepflow",
			Name:      "pauses_total",
			Help:      "Breakpoint halts by step name.",
		}, []string{"step"}),
		checkpointWrites: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "stepflow",
			Name:      "checkpoint_writes_total",
			Help:      "Successful checkpoint writes.",
		}),
		activeThreads: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "stepflow",
			Name:      "active_threads",
			Help:      "Threads currently inside a scheduling call.",
		}),
	}
}

func (m *Metrics) observeStep(step string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.steps.WithLabelValues(step, status).Inc()
	m.stepLatency.WithLabelValues(step).Observe(float64(d.Milliseconds()))
}

func (m *Metrics) observePause(step string) {
	if m == nil {
		return
	}
	m.pauses.WithLabelValues(step).Inc()
}

func (m *Metrics) observeCheckpointWrite() {
	if m == nil {
		return
	}
	m.checkpointWrites.Inc()
}

func (m *Metrics) threadActive(delta float64) {
	if m == nil {
		return
	}
	m.activeThreads.Add(delta)
}
