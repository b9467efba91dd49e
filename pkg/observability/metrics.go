/*
Package observability exposes pipeline run metrics.

It implements the orchestrator's lifecycle hooks on top of Prometheus
collectors, so a long-lived gantry process can report run outcomes,
stage durations and publish attempts without the core knowing about
metrics at all.
*/
package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/gantry/pkg/domain"
)

// Metrics holds the pipeline collectors. Create one per process with
// NewMetrics and wire Hooks() into the orchestrator.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal      *prometheus.CounterVec
	runDuration    prometheus.Histogram
	stagesTotal    *prometheus.CounterVec
	publishesTotal *prometheus.CounterVec
}

// NewMetrics registers the pipeline collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gantry",
			Name:      "runs_total",
			Help:      "Pipeline runs by terminal status.",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gantry",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of complete runs.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		stagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gantry",
			Name:      "stages_total",
			Help:      "Stage executions by stage name and terminal status.",
		}, []string{"stage", "status"}),
		publishesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gantry",
			Name:      "publish_attempts_total",
			Help:      "Registry publish attempts by audience.",
		}, []string{"audience"}),
	}
	m.registry.MustRegister(m.runsTotal, m.runDuration, m.stagesTotal, m.publishesTotal)
	return m
}

// Hooks returns lifecycle hooks feeding these collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageFinish: func(ctx context.Context, e *domain.StageEvent) {
			m.stagesTotal.WithLabelValues(e.Stage, string(e.Status)).Inc()
		},
		OnPublishAttempt: func(ctx context.Context, e *domain.PublishEvent) {
			m.publishesTotal.WithLabelValues(e.Audience).Inc()
		},
		OnRunFinish: func(ctx context.Context, e *domain.RunEvent) {
			m.runsTotal.WithLabelValues(string(e.Status)).Inc()
			m.runDuration.Observe(e.Duration.Seconds())
		},
	}
}

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying collector registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
