package observability

import (
	"context"
	"sync"

	"github.com/aretw0/frame/pkg/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope used when no tracer is supplied.
const TracerName = "github.com/aretw0/frame"

// Tracing records one span per flow run. The span starts when step 0 is
// invoked and ends when the flow completes or aborts; steps are span events.
type Tracing struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]trace.Span
}

// NewTracing creates flow tracing on tracer, or on the global provider when nil.
func NewTracing(tracer trace.Tracer) *Tracing {
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	return &Tracing{
		tracer: tracer,
		spans:  make(map[string]trace.Span),
	}
}

// Hooks returns lifecycle hooks that drive the spans.
func (t *Tracing) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(ctx context.Context, e *domain.FlowEvent) {
			if e.Step == 0 {
				t.start(ctx, e)
			}
			t.event(e, "step", attribute.String("frame.target", e.Target))
		},
		OnStepDone: func(ctx context.Context, e *domain.FlowEvent) {
			attrs := []attribute.KeyValue{
				attribute.String("frame.target", e.Target),
				attribute.Int64("frame.duration_ms", e.Duration.Milliseconds()),
			}
			if e.Err != nil {
				attrs = append(attrs, attribute.String("frame.error", e.Err.Error()))
			}
			t.event(e, "step_done", attrs...)
		},
		OnFlowEnd: func(ctx context.Context, e *domain.FlowEvent) {
			if span := t.take(e.InstanceID); span != nil {
				span.SetAttributes(attribute.Int("frame.steps", e.Step))
				span.SetStatus(codes.Ok, "")
				span.End()
			}
		},
		OnFlowAbort: func(ctx context.Context, e *domain.FlowEvent) {
			if span := t.take(e.InstanceID); span != nil {
				span.SetAttributes(attribute.Int("frame.failed_step", e.Step))
				span.RecordError(e.Err)
				span.SetStatus(codes.Error, e.Err.Error())
				span.End()
			}
		},
	}
}

func (t *Tracing) start(ctx context.Context, e *domain.FlowEvent) {
	_, span := t.tracer.Start(ctx, "flow "+e.Blueprint,
		trace.WithAttributes(
			attribute.String("frame.blueprint", e.Blueprint),
			attribute.String("frame.instance_id", e.InstanceID),
		),
	)

	t.mu.Lock()
	prev := t.spans[e.InstanceID]
	t.spans[e.InstanceID] = span
	t.mu.Unlock()

	// Overlapping runs of one instance share the newest span.
	if prev != nil {
		prev.SetAttributes(attribute.Bool("frame.overlapped", true))
		prev.End()
	}
}

func (t *Tracing) event(e *domain.FlowEvent, name string, attrs ...attribute.KeyValue) {
	t.mu.Lock()
	span := t.spans[e.InstanceID]
	t.mu.Unlock()
	if span != nil {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

func (t *Tracing) take(instanceID string) trace.Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	span := t.spans[instanceID]
	delete(t.spans, instanceID)
	return span
}
