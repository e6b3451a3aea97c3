package cli

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/frame"
	"github.com/aretw0/frame/internal/presentation/tui"
)

// RunWatch runs the pipelines in development mode, rebuilding the engine
// whenever the catalog changes.
func RunWatch(opts RunOptions) error {
	logger := createLogger(opts.Debug)
	tui.PrintBanner(os.Stdout)
	printSystemMessage("Frame %s watching '%s'.", frame.Version, opts.RepoPath)

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	for runWatchIteration(sigCtx, opts, logger) {
		logger.Info("Watcher restarting")
	}
	logCompletion(opts.File, context.Canceled, sigCtx.Signal())
	return nil
}

// runWatchIteration reports whether the watcher should start over.
func runWatchIteration(parent *SignalContext, opts RunOptions, logger *slog.Logger) bool {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	engine, release, err := createEngine(opts, logger)
	if err != nil {
		logger.Error("Engine initialization failed", "err", err)
		select {
		case <-parent.Done():
			return false
		case <-time.After(2 * time.Second):
			return true
		}
	}
	defer release()
	defer engine.Close()

	watchCh, err := engine.Watch(ctx)
	if err != nil {
		logger.Warn("Catalog cannot be watched", "err", err)
	}

	runOpts := opts
	runOpts.Follow = true
	done := make(chan error, 1)
	go func() {
		done <- runPipelines(ctx, engine, runOpts, logger)
	}()

	for {
		select {
		case <-parent.Done():
			cancel()
			<-done
			return false

		case err := <-done:
			done = nil
			if err != nil && !isInterrupted(err) {
				logger.Error("Runtime error", "err", err)
			}
			printSystemMessage("Waiting for changes...")

		case event, ok := <-watchCh:
			if !ok {
				watchCh = nil
				continue
			}
			logger.Info("Change detected, triggering reload", "event", event)
			printSystemMessage("Change detected in '%s'.", event)
			// Let the file system settle.
			time.Sleep(100 * time.Millisecond)
			cancel()
			if done != nil {
				<-done
			}
			return true
		}
	}
}
