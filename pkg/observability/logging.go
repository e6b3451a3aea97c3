package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/frame/pkg/domain"
)

// LogHooks writes every lifecycle event to logger. Steps are logged at debug
// level, failures at error level and everything else at info.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	base := func(e *domain.FlowEvent) []any {
		args := []any{"blueprint", e.Blueprint, "instance", e.InstanceID}
		if e.Step >= 0 {
			args = append(args, "step", e.Step)
		}
		if e.Target != "" {
			args = append(args, "target", e.Target)
		}
		if e.Duration > 0 {
			args = append(args, "duration", e.Duration)
		}
		return args
	}
	outcome := func(msg string) func(context.Context, *domain.FlowEvent) {
		return func(ctx context.Context, e *domain.FlowEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, msg+" failed", append(base(e), "err", e.Err)...)
				return
			}
			logger.InfoContext(ctx, msg, base(e)...)
		}
	}

	return domain.LifecycleHooks{
		OnLoad:  outcome("blueprint loaded"),
		OnInit:  outcome("blueprint initialized"),
		OnBuild: outcome("flow built"),
		OnStep: func(ctx context.Context, e *domain.FlowEvent) {
			logger.DebugContext(ctx, "step", base(e)...)
		},
		OnStepDone: func(ctx context.Context, e *domain.FlowEvent) {
			logger.DebugContext(ctx, "step done", base(e)...)
		},
		OnFlowEnd: outcome("flow ended"),
		OnFlowAbort: func(ctx context.Context, e *domain.FlowEvent) {
			logger.ErrorContext(ctx, "flow aborted", append(base(e), "err", e.Err)...)
		},
	}
}
