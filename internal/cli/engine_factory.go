package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/frame"
	httpAdapter "github.com/aretw0/frame/pkg/adapters/http"
	"github.com/aretw0/frame/pkg/adapters/process"
	redisAdapter "github.com/aretw0/frame/pkg/adapters/redis"
	"github.com/aretw0/frame/pkg/domain"
	"github.com/aretw0/frame/pkg/observability"
	"github.com/aretw0/frame/pkg/ports"
)

// pipelineFiles are the names looked up when no pipelines file is given.
var pipelineFiles = []string{"pipelines.yaml", "pipelines.yml", "frame.yaml", "frame.yml"}

// toolFiles allow-list local commands exposed as mem:// blueprints.
var toolFiles = []string{"tools.yaml", "tools.yml", "tools.json"}

// createEngine initializes a Frame engine with standard CLI conventions.
// The returned release function closes any backend connections.
func createEngine(opts RunOptions, logger *slog.Logger) (*frame.Engine, func(), error) {
	release := func() {}
	engineOpts := []frame.Option{
		frame.WithLogger(logger),
		frame.WithOutput(os.Stdout),
	}

	hooks := opts.Hooks
	if opts.Debug {
		hooks = domain.ComposeHooks(observability.LogHooks(logger), hooks)
	}
	engineOpts = append(engineOpts, frame.WithLifecycleHooks(hooks))

	if opts.CatalogURL != "" {
		engineOpts = append(engineOpts, frame.WithSource(domain.ProtocolHTTP, httpAdapter.NewSource(opts.CatalogURL)))
	}
	if opts.RedisAddr != "" {
		store := redisAdapter.New(opts.RedisAddr, "", 0)
		engineOpts = append(engineOpts, frame.WithSource(domain.ProtocolRedis, secureStore(store, opts.CatalogKey, nil)))
		release = func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing redis store", "err", err)
			}
		}
	}

	engine, err := frame.New(opts.RepoPath, engineOpts...)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("error initializing engine: %w", err)
	}

	if err := bindTools(engine, opts.RepoPath); err != nil {
		engine.Close()
		release()
		return nil, nil, err
	}

	return engine, release, nil
}

// bindTools exposes the catalog's tools file, if any, as mem:// blueprints.
func bindTools(engine *frame.Engine, repoPath string) error {
	path := findTools(repoPath)
	if path == "" || engine.Registry() == nil || engine.Catalog() == nil {
		return nil
	}
	runner, err := process.LoadRunner(path, process.WithBaseDir(repoPath))
	if err != nil {
		return err
	}
	runner.Bind(engine.Registry())

	src, ok := engine.Catalog().Source(domain.ProtocolMemory)
	if !ok {
		return nil
	}
	store, ok := src.(ports.ManifestStore)
	if !ok {
		return fmt.Errorf("mem catalog is read-only, cannot add tools from %s", path)
	}
	for _, m := range runner.Manifests() {
		if err := store.Save(context.Background(), &m); err != nil {
			return err
		}
	}
	return nil
}

// findTools returns the catalog's tools file, or "" when there is none.
func findTools(repoPath string) string {
	return findFirst(repoPath, toolFiles)
}

// findPipelines returns the first conventional pipelines file present in
// repoPath, or "" when there is none.
func findPipelines(repoPath string) string {
	return findFirst(repoPath, pipelineFiles)
}

func findFirst(repoPath string, names []string) string {
	if repoPath == "" {
		return ""
	}
	for _, name := range names {
		path := filepath.Join(repoPath, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
