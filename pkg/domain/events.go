package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventLoad      EventType = "load"
	EventInit      EventType = "init"
	EventBuild     EventType = "build"
	EventStep      EventType = "step"
	EventStepDone  EventType = "step_done"
	EventFlowEnd   EventType = "flow_end"
	EventFlowAbort EventType = "flow_abort"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// FlowEvent describes something that happened to a blueprint.
type FlowEvent struct {
	EventBase
	Blueprint  string `json:"blueprint"`
	InstanceID string `json:"instance_id,omitempty"`
	// Step is the flow position involved (-1 when not applicable).
	Step int `json:"step"`
	// Target is the blueprint invoked at Step.
	Target string `json:"target,omitempty"`
	Data   any    `json:"data,omitempty"`
	Err    error  `json:"-"`
	// Duration is set on step_done, flow_end and flow_abort.
	Duration time.Duration `json:"duration,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run on the engine loop and must not block.
type LifecycleHooks struct {
	OnLoad      func(context.Context, *FlowEvent)
	OnInit      func(context.Context, *FlowEvent)
	OnBuild     func(context.Context, *FlowEvent)
	OnStep      func(context.Context, *FlowEvent)
	OnStepDone  func(context.Context, *FlowEvent)
	OnFlowEnd   func(context.Context, *FlowEvent)
	OnFlowAbort func(context.Context, *FlowEvent)
}

// ComposeHooks fans every event out to each of the given hook sets in order.
func ComposeHooks(sets ...LifecycleHooks) LifecycleHooks {
	pick := func(get func(LifecycleHooks) func(context.Context, *FlowEvent)) func(context.Context, *FlowEvent) {
		var fns []func(context.Context, *FlowEvent)
		for _, s := range sets {
			if fn := get(s); fn != nil {
				fns = append(fns, fn)
			}
		}
		if len(fns) == 0 {
			return nil
		}
		return func(ctx context.Context, e *FlowEvent) {
			for _, fn := range fns {
				fn(ctx, e)
			}
		}
	}
	return LifecycleHooks{
		OnLoad:      pick(func(h LifecycleHooks) func(context.Context, *FlowEvent) { return h.OnLoad }),
		OnInit:      pick(func(h LifecycleHooks) func(context.Context, *FlowEvent) { return h.OnInit }),
		OnBuild:     pick(func(h LifecycleHooks) func(context.Context, *FlowEvent) { return h.OnBuild }),
		OnStep:      pick(func(h LifecycleHooks) func(context.Context, *FlowEvent) { return h.OnStep }),
		OnStepDone:  pick(func(h LifecycleHooks) func(context.Context, *FlowEvent) { return h.OnStepDone }),
		OnFlowEnd:   pick(func(h LifecycleHooks) func(context.Context, *FlowEvent) { return h.OnFlowEnd }),
		OnFlowAbort: pick(func(h LifecycleHooks) func(context.Context, *FlowEvent) { return h.OnFlowAbort }),
	}
}
