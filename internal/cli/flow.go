package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/frame"
	"github.com/aretw0/frame/pkg/dsl"
)

// RunFlow wires the pipelines file onto a fresh engine and runs it once.
func RunFlow(ctx context.Context, opts RunOptions) error {
	logger := createLogger(opts.Debug)

	engine, release, err := createEngine(opts, logger)
	if err != nil {
		return err
	}
	defer release()
	defer engine.Close()

	return runPipelines(ctx, engine, opts, logger)
}

func runPipelines(ctx context.Context, engine *frame.Engine, opts RunOptions, logger *slog.Logger) error {
	pipelines, err := dsl.LoadFile(opts.File)
	if err != nil {
		return err
	}
	if _, err := engine.Wire(pipelines...); err != nil {
		return err
	}
	logger.Info("Pipelines wired", "file", opts.File, "count", len(pipelines))

	if opts.Follow {
		if err := engine.Run(ctx); err != nil {
			return err
		}
		return ctx.Err()
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	err = engine.Drain(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("pipelines did not settle within %s", opts.Timeout)
	}
	return err
}
