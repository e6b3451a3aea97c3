package frame

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/frame/internal/runtime"
	"github.com/aretw0/frame/pkg/adapters/memory"
	"github.com/aretw0/frame/pkg/blueprints"
	"github.com/aretw0/frame/pkg/domain"
	"github.com/aretw0/frame/pkg/dsl"
	"github.com/aretw0/frame/pkg/loader"
	"github.com/aretw0/frame/pkg/ports"
	"github.com/aretw0/frame/pkg/registry"
	"github.com/aretw0/loam"

	loamAdapter "github.com/aretw0/frame/pkg/adapters/loam"
)

// Blueprint is a handle on a node owned by an Engine.
type Blueprint = runtime.Blueprint

// NodeSnapshot is a read-only view of a node.
type NodeSnapshot = runtime.NodeSnapshot

// Engine is the high-level entry point for the Frame library.
// It wraps the internal runtime and assembles the default catalog:
// a Loam repository served as "file" and the standard blueprints served as "mem".
type Engine struct {
	runtime     *runtime.Engine
	loader      ports.Loader
	catalog     *loader.Loader
	registry    *registry.Registry
	sources     map[string]ports.ManifestSource
	protocol    string
	output      io.Writer
	runtimeOpts []runtime.EngineOption
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	Name        string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLoader injects a custom Loader, bypassing the default catalog.
func WithLoader(l ports.Loader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRegistry sets the implementation registry manifests are bound against.
// The standard blueprints are added to it.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithSource serves protocol from src, replacing the default for that protocol.
func WithSource(protocol string, src ports.ManifestSource) Option {
	return func(e *Engine) {
		e.sources[protocol] = src
	}
}

// WithDefaultProtocol sets the protocol used by names without a prefix.
func WithDefaultProtocol(protocol string) Option {
	return func(e *Engine) {
		e.protocol = protocol
	}
}

// WithOutput sets where std/print writes.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.output = w
	}
}

// WithDebounce sets the build coalescing window.
func WithDebounce(window time.Duration) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithDebounce(window))
	}
}

// WithRejectOnError makes an aborted flow reject its pending value promise.
func WithRejectOnError(reject bool) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithRejectOnError(reject))
	}
}

// WithValidator replaces the definition validator.
func WithValidator(v ports.Validator) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithValidator(v))
	}
}

// WithParamMapper replaces the positional-to-named parameter mapper.
func WithParamMapper(m ports.ParamMapper) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithParamMapper(m))
	}
}

// New initializes a new Frame Engine.
// By default, manifests are read from a Loam repository at repoPath and bound
// against the standard blueprints. An empty repoPath serves only the standard
// catalog. If WithLoader is provided the catalog is skipped entirely.
func New(repoPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{sources: make(map[string]ports.ManifestSource)}

	for _, opt := range opts {
		opt(eng)
	}

	if repoPath != "" {
		absPath, err := filepath.Abs(repoPath)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		eng.Name = filepath.Base(absPath)
		repoPath = absPath
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("catalog", eng.Name)
	}

	if eng.loader == nil {
		if err := eng.initCatalog(repoPath); err != nil {
			return nil, err
		}
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	}
	runtimeOpts = append(runtimeOpts, eng.runtimeOpts...)

	eng.runtime = runtime.NewEngine(eng.loader, runtimeOpts...)
	return eng, nil
}

func (e *Engine) initCatalog(repoPath string) error {
	if e.registry == nil {
		e.registry = registry.NewRegistry()
	}
	var stdOpts []blueprints.Option
	if e.output != nil {
		stdOpts = append(stdOpts, blueprints.WithOutput(e.output))
	}
	blueprints.Register(e.registry, stdOpts...)

	if _, ok := e.sources[domain.ProtocolMemory]; !ok {
		e.sources[domain.ProtocolMemory] = memory.NewStore(blueprints.Manifests()...)
	}

	if _, ok := e.sources[domain.ProtocolFile]; !ok && repoPath != "" {
		// Strict mode keeps numbers as json.Number across formats; the engine
		// never writes to the repository.
		repo, err := loam.Init(repoPath,
			loam.WithStrict(true),
			loam.WithReadOnly(true),
		)
		if err != nil {
			return fmt.Errorf("failed to initialize loam: %w", err)
		}
		typedRepo := loam.NewTypedRepository[loamAdapter.ManifestMetadata](repo)
		e.sources[domain.ProtocolFile] = loamAdapter.New(typedRepo)
	}

	if e.protocol == "" {
		e.protocol = domain.ProtocolMemory
		if _, ok := e.sources[domain.ProtocolFile]; ok {
			e.protocol = domain.ProtocolFile
		}
	}

	loaderOpts := []loader.Option{
		loader.WithDefaultProtocol(e.protocol),
		loader.WithLogger(e.logger),
	}
	for protocol, src := range e.sources {
		loaderOpts = append(loaderOpts, loader.WithSource(protocol, src))
	}
	e.catalog = loader.New(e.registry, loaderOpts...)
	e.loader = e.catalog
	return nil
}

// Blueprint returns the template for name, loading it on first use.
func (e *Engine) Blueprint(name string) *Blueprint {
	return e.runtime.Blueprint(name)
}

// Define registers a definition directly, bypassing the loader.
func (e *Engine) Define(def *domain.Definition) (*Blueprint, error) {
	return e.runtime.Define(def)
}

// Wire builds every pipeline onto the engine and returns their owners in order.
// It stops at the first pipeline that fails.
func (e *Engine) Wire(pipelines ...*dsl.Pipeline) ([]*Blueprint, error) {
	out := make([]*Blueprint, 0, len(pipelines))
	for _, p := range pipelines {
		bp, err := p.Wire(e)
		if err != nil {
			return out, err
		}
		out = append(out, bp)
	}
	return out, nil
}

// Post runs fn on the engine loop.
func (e *Engine) Post(fn func()) {
	e.runtime.Post(fn)
}

// Run processes work until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	return e.runtime.Run(ctx)
}

// Drain processes work until nothing is queued or in flight.
func (e *Engine) Drain(ctx context.Context) error {
	return e.runtime.Drain(ctx)
}

// Close stops pending timers.
func (e *Engine) Close() {
	e.runtime.Close()
}

// Snapshot describes every blueprint node. Call it while the engine is not
// running, or from a function passed to Post.
func (e *Engine) Snapshot() []NodeSnapshot {
	return e.runtime.Snapshot()
}

// Inspect snapshots the engine from its loop, so it is safe while Run is
// active. It fails if the loop does not pick the request up before ctx ends.
func (e *Engine) Inspect(ctx context.Context) ([]NodeSnapshot, error) {
	ch := make(chan []NodeSnapshot, 1)
	e.runtime.Post(func() {
		ch <- e.runtime.Snapshot()
	})
	select {
	case nodes := <-ch:
		return nodes, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Loader returns the loader in use.
func (e *Engine) Loader() ports.Loader {
	return e.loader
}

// Catalog returns the default catalog, or nil when a custom loader was injected.
func (e *Engine) Catalog() *loader.Loader {
	return e.catalog
}

// Registry returns the implementation registry, or nil when a custom loader was injected.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Watch invalidates cached definitions as the catalog changes and reports the
// affected references. Blueprints already loaded keep their definition.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	if e.catalog != nil {
		return e.catalog.Watch(ctx)
	}
	if w, ok := e.loader.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, errors.New("loader does not support watching")
}
