package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/frame"
	httpAdapter "github.com/aretw0/frame/pkg/adapters/http"
	"github.com/aretw0/frame/pkg/domain"
	"github.com/aretw0/frame/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

// ServeOptions configures the catalog server.
type ServeOptions struct {
	Addr string
	// Protocol selects which catalog source is served. Empty means "file"
	// when a directory is configured and "mem" otherwise.
	Protocol string
	// Pipelines also runs the pipelines file, feeding /metrics and /graph.
	Pipelines bool
}

// Serve exposes a catalog over HTTP until ctx is done.
func Serve(ctx context.Context, opts RunOptions, sopts ServeOptions) error {
	logger := createLogger(opts.Debug)

	if sopts.Pipelines && opts.File == "" {
		opts.File = findPipelines(opts.RepoPath)
		if opts.File == "" {
			return fmt.Errorf("no pipelines file found in %s", opts.RepoPath)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return err
	}
	opts.Hooks = domain.ComposeHooks(opts.Hooks, metrics.Hooks(), observability.NewTracing(nil).Hooks())

	engine, release, err := createEngine(opts, logger)
	if err != nil {
		return err
	}
	defer release()
	defer engine.Close()

	protocol := sopts.Protocol
	if protocol == "" {
		protocol = domain.ProtocolMemory
		if opts.RepoPath != "" {
			protocol = domain.ProtocolFile
		}
	}
	source, ok := engine.Catalog().Source(protocol)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedProtocol, protocol)
	}

	handlerOpts := []httpAdapter.HandlerOption{
		httpAdapter.WithMetrics(reg),
		httpAdapter.WithVersion(frame.Version),
		httpAdapter.WithLogger(logger),
	}
	if sopts.Pipelines {
		handlerOpts = append(handlerOpts, httpAdapter.WithInspector(func() any {
			inspectCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			nodes, err := engine.Inspect(inspectCtx)
			if err != nil {
				return map[string]string{"error": err.Error()}
			}
			return nodes
		}))
	}

	srv := &http.Server{
		Addr:    sopts.Addr,
		Handler: httpAdapter.NewHandler(source, handlerOpts...),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		printSystemMessage("Serving %s:// catalog on %s", protocol, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
		return nil
	})

	if sopts.Pipelines {
		runOpts := opts
		runOpts.Follow = true
		g.Go(func() error {
			err := runPipelines(gctx, engine, runOpts, logger)
			if gctx.Err() != nil {
				return nil
			}
			return err
		})
	}

	if changes, err := engine.Watch(gctx); err == nil {
		g.Go(func() error {
			for name := range changes {
				logger.Info("Catalog changed", "blueprint", name)
			}
			return nil
		})
	}

	return g.Wait()
}
