package runtime

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/frame/internal/validator"
	"github.com/aretw0/frame/pkg/domain"
	"github.com/aretw0/frame/pkg/params"
	"github.com/aretw0/frame/pkg/ports"
	"github.com/google/uuid"
)

// DefaultDebounce is the coalescing window applied to graph builds.
// Zero defers a build to the next queue turn.
const DefaultDebounce = 0

// Engine is the flow orchestration core. It owns an arena of nodes and a
// single-threaded loop on which every node state change happens.
//
// Blueprint handles may be wired before Run or Drain is called, from handlers
// running on the loop, or from other goroutines through Post.
type Engine struct {
	loader        ports.Loader
	validator     ports.Validator
	mapper        ports.ParamMapper
	logger        *slog.Logger
	hooks         domain.LifecycleHooks
	debounce      time.Duration
	rejectOnError bool

	loop  *loop
	nodes []*node
	// templates maps a normalized reference to its template node.
	templates map[string]NodeID

	ctxMu sync.RWMutex
	ctx   context.Context
	fatal error
	runMu sync.Mutex
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithValidator replaces the definition validator.
func WithValidator(v ports.Validator) EngineOption {
	return func(e *Engine) {
		e.validator = v
	}
}

// WithParamMapper replaces the positional-to-named parameter mapper.
func WithParamMapper(m ports.ParamMapper) EngineOption {
	return func(e *Engine) {
		e.mapper = m
	}
}

// WithDebounce sets the build coalescing window.
func WithDebounce(window time.Duration) EngineOption {
	return func(e *Engine) {
		e.debounce = window
	}
}

// WithRejectOnError makes an aborted flow reject its pending value promise.
// Parent flows are still not resumed.
func WithRejectOnError(reject bool) EngineOption {
	return func(e *Engine) {
		e.rejectOnError = reject
	}
}

// NewEngine creates a new engine. A nil loader is allowed when every blueprint
// is registered with Define. Parameters are mapped with pkg/params and
// definitions are checked by internal/validator unless replaced by options.
func NewEngine(loader ports.Loader, opts ...EngineOption) *Engine {
	e := &Engine{
		loader:    loader,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		debounce:  DefaultDebounce,
		loop:      newLoop(),
		templates: make(map[string]NodeID),
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.mapper == nil {
		e.mapper = params.New()
	}
	if e.validator == nil {
		e.validator = validator.New()
	}
	return e
}

// Blueprint returns the template for name, creating it (and starting its load)
// on first use. Names are trimmed, lower-cased and may carry a protocol prefix.
func (e *Engine) Blueprint(name string) *Blueprint {
	ref := domain.ParseRef(name)
	if ref.Name == "" {
		return &Blueprint{eng: e, id: -1, err: &domain.ConfigurationError{Blueprint: name, Op: "blueprint", Err: domain.ErrInvalidBlueprint}}
	}
	if id, ok := e.templates[ref.String()]; ok {
		return e.handle(id)
	}

	n := e.newNode(kindFull, ref.Name)
	n.ref = ref
	e.templates[ref.String()] = n.id
	e.startLoad(n)
	return e.handle(n.id)
}

// Define registers a definition directly, bypassing the loader.
// A template already waiting on a load for the same name is completed instead.
// Defining a loaded name again returns a *domain.ConfigurationError wrapping
// domain.ErrAlreadyDefined, unless def is the definition already in place.
func (e *Engine) Define(def *domain.Definition) (*Blueprint, error) {
	checked, err := e.validator.Validate(def)
	if err != nil {
		return nil, &domain.LoadError{Name: nameOf(def), Err: err}
	}
	def = checked

	ref := domain.ParseRef(def.Name)
	if id, ok := e.templates[ref.String()]; ok {
		n := e.nodes[id]
		switch {
		case !n.loaded:
			e.completeLoad(n, def)
		case n.def != def:
			return nil, &domain.ConfigurationError{Blueprint: ref.Name, Op: "define", Err: domain.ErrAlreadyDefined}
		}
		return e.handle(id), nil
	}

	n := e.newNode(kindFull, ref.Name)
	n.ref = ref
	e.templates[ref.String()] = n.id
	e.completeLoad(n, def)
	return e.handle(n.id), nil
}

// Post runs fn on the loop goroutine. It is the way to touch blueprints from
// goroutines other than the loop.
func (e *Engine) Post(fn func()) {
	e.loop.post(task(fn))
}

// Run processes work until ctx is done. It returns nil on cancellation and the
// first fatal configuration error otherwise.
func (e *Engine) Run(ctx context.Context) error {
	err := e.run(ctx, false)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Drain processes work until nothing is queued or in flight.
// It returns ctx.Err() if ctx ends first.
func (e *Engine) Drain(ctx context.Context) error {
	return e.run(ctx, true)
}

// Close stops pending debounce timers.
func (e *Engine) Close() {
	e.loop.stop()
}

func (e *Engine) run(ctx context.Context, untilIdle bool) error {
	if !e.runMu.TryLock() {
		return errors.New("engine loop is already running")
	}
	defer e.runMu.Unlock()

	e.ctxMu.Lock()
	e.ctx = ctx
	e.ctxMu.Unlock()

	return e.loop.run(ctx, untilIdle, func() error { return e.fatal })
}

func (e *Engine) context() context.Context {
	e.ctxMu.RLock()
	defer e.ctxMu.RUnlock()
	return e.ctx
}

func (e *Engine) handle(id NodeID) *Blueprint {
	return &Blueprint{eng: e, id: id}
}

func (e *Engine) newNode(k kind, name string) *node {
	n := &node{
		id:         NodeID(len(e.nodes)),
		name:       name,
		instanceID: uuid.NewString(),
		kind:       k,
		template:   -1,
		working:    -1,
	}
	e.nodes = append(e.nodes, n)
	return n
}

func (e *Engine) node(id NodeID) *node {
	if id < 0 || int(id) >= len(e.nodes) {
		return nil
	}
	return e.nodes[id]
}

// instantiate returns the working copy of a template, creating it when needed.
// Singletons are their own working copy.
func (e *Engine) instantiate(n *node) *node {
	if n.instance || n.isAdapter() {
		return n
	}
	if n.def != nil && n.def.Singleton {
		n.instance = true
		return n
	}
	if n.working >= 0 {
		return e.nodes[n.working]
	}
	c := e.copyOf(n)
	n.working = c.id
	return c
}

func (e *Engine) copyOf(n *node) *node {
	c := e.newNode(n.kind, n.name)
	c.ref = n.ref
	c.template = n.id
	c.instance = true
	c.def = n.def
	c.loaded = n.loaded
	n.copies = append(n.copies, c.id)
	return c
}

func (e *Engine) emit(fn func(context.Context, *domain.FlowEvent), typ domain.EventType, n *node, step int, target string, data any, err error, dur time.Duration) {
	if fn == nil {
		return
	}
	fn(e.context(), &domain.FlowEvent{
		EventBase:  domain.EventBase{Timestamp: time.Now(), Type: typ},
		Blueprint:  n.name,
		InstanceID: n.instanceID,
		Step:       step,
		Target:     target,
		Data:       data,
		Err:        err,
		Duration:   dur,
	})
}

func nameOf(def *domain.Definition) string {
	if def == nil {
		return ""
	}
	return def.Name
}
