// Package metrics translates kernel events into Prometheus series.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tailored-agentic-units/alfred/kernel"
	"github.com/tailored-agentic-units/alfred/observability"
)

const namespace = "alfred"

// unknownTool labels calls to tools missing from the catalog, keeping the
// tool label bounded by the catalog size.
const unknownTool = "unknown"

// PrometheusObserver records run, iteration and tool metrics from kernel
// events. Events of other types are ignored.
type PrometheusObserver struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	iterations   prometheus.Histogram
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	inflight     prometheus.Gauge
}

// NewPrometheusObserver creates an observer whose collectors are registered
// on a dedicated registry, returned by Registry.
func NewPrometheusObserver() *PrometheusObserver {
	o := &PrometheusObserver{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed agent runs by outcome.",
		}, []string{"outcome"}),
		iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_iterations",
			Help:      "Model calls made per run.",
			Buckets:   []float64{1, 2, 3, 4, 5, 7, 10, 15, 20},
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool executions by tool and outcome.",
		}, []string{"tool", "outcome"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Duration of tool executions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_in_flight",
			Help:      "Runs currently executing.",
		}),
	}

	o.registry.MustRegister(o.runs, o.iterations, o.toolCalls, o.toolDuration, o.inflight)
	return o
}

// Registry returns the registry holding the observer's collectors.
func (o *PrometheusObserver) Registry() *prometheus.Registry {
	return o.registry
}

func (o *PrometheusObserver) OnEvent(_ context.Context, event observability.Event) {
	switch event.Type {
	case kernel.EventRunStart:
		o.inflight.Inc()

	case kernel.EventRunComplete:
		o.inflight.Dec()
		outcome, _ := event.Data["outcome"].(string)
		if outcome == "" {
			outcome = "unknown"
		}
		o.runs.WithLabelValues(outcome).Inc()
		if n, ok := event.Data["iterations"].(int); ok {
			o.iterations.Observe(float64(n))
		}

	case kernel.EventToolComplete:
		name, _ := event.Data["name"].(string)
		if registered, ok := event.Data["registered"].(bool); ok && !registered {
			name = unknownTool
		}
		outcome := "ok"
		if failed, _ := event.Data["error"].(bool); failed {
			outcome = "error"
		}
		o.toolCalls.WithLabelValues(name, outcome).Inc()
		if d, ok := event.Data["duration"].(time.Duration); ok {
			o.toolDuration.WithLabelValues(name).Observe(d.Seconds())
		}
	}
}

var defaultObserver = NewPrometheusObserver()

// Default returns the process-wide observer registered as "prometheus".
func Default() *PrometheusObserver {
	return defaultObserver
}

func init() {
	observability.RegisterObserver("prometheus", defaultObserver)
}
