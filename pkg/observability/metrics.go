package observability

import (
	"context"
	"fmt"

	"github.com/aretw0/frame/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records engine activity as Prometheus collectors.
type Metrics struct {
	Steps        *prometheus.CounterVec
	StepDuration *prometheus.HistogramVec
	Flows        *prometheus.CounterVec
	FlowDuration *prometheus.HistogramVec
	Builds       *prometheus.CounterVec
	Failures     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "frame_steps_total",
				Help: "Total number of flow steps invoked",
			},
			[]string{"blueprint", "target"},
		),
		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "frame_step_duration_seconds",
				Help:    "Time from invoking a step to its signal",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"target", "status"},
		),
		Flows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "frame_flows_total",
				Help: "Total number of finished flows by outcome",
			},
			[]string{"blueprint", "outcome"},
		),
		FlowDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "frame_flow_duration_seconds",
				Help:    "Duration of finished flows",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"blueprint"},
		),
		Builds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "frame_flow_builds_total",
				Help: "Total number of flow graph builds",
			},
			[]string{"blueprint"},
		),
		Failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "frame_lifecycle_failures_total",
				Help: "Load and init failures",
			},
			[]string{"blueprint", "phase"},
		),
	}

	for _, c := range []prometheus.Collector{m.Steps, m.StepDuration, m.Flows, m.FlowDuration, m.Builds, m.Failures} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	failure := func(phase string) func(context.Context, *domain.FlowEvent) {
		return func(ctx context.Context, e *domain.FlowEvent) {
			if e.Err != nil {
				m.Failures.WithLabelValues(e.Blueprint, phase).Inc()
			}
		}
	}

	return domain.LifecycleHooks{
		OnLoad: failure("load"),
		OnInit: failure("init"),
		OnBuild: func(ctx context.Context, e *domain.FlowEvent) {
			m.Builds.WithLabelValues(e.Blueprint).Inc()
		},
		OnStep: func(ctx context.Context, e *domain.FlowEvent) {
			m.Steps.WithLabelValues(e.Blueprint, e.Target).Inc()
		},
		OnStepDone: func(ctx context.Context, e *domain.FlowEvent) {
			status := "ok"
			if e.Err != nil {
				status = "error"
			}
			m.StepDuration.WithLabelValues(e.Target, status).Observe(e.Duration.Seconds())
		},
		OnFlowEnd: func(ctx context.Context, e *domain.FlowEvent) {
			m.Flows.WithLabelValues(e.Blueprint, "completed").Inc()
			m.FlowDuration.WithLabelValues(e.Blueprint).Observe(e.Duration.Seconds())
		},
		OnFlowAbort: func(ctx context.Context, e *domain.FlowEvent) {
			m.Flows.WithLabelValues(e.Blueprint, "aborted").Inc()
			m.FlowDuration.WithLabelValues(e.Blueprint).Observe(e.Duration.Seconds())
		},
	}
}
