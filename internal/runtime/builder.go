package runtime

import (
	"fmt"
	"sync"

	"github.com/aretw0/frame/pkg/domain"
)

const opProcessFlow = "processFlow"

// scheduleBuild requests a debounced processFlow for n.
func (e *Engine) scheduleBuild(n *node) {
	id := n.id
	e.loop.debounce(debounceKey{node: id, op: opProcessFlow}, e.debounce, func() {
		if err := e.processFlow(e.nodes[id]); err != nil {
			e.logger.Error("flow build failed", "blueprint", e.nodes[id].name, "err", err)
			if e.fatal == nil {
				e.fatal = err
			}
		}
	})
}

// startLoad resolves the node's definition off the loop. The resolution starts
// once the loop runs so that it inherits the run context.
func (e *Engine) startLoad(n *node) {
	if e.loader == nil {
		e.logger.Debug("no loader configured, waiting for Define", "blueprint", n.name)
		return
	}

	id, ref := n.id, n.ref
	e.loop.acquire()
	e.loop.post(func() {
		ctx := e.context()
		go func() {
			def, err := e.loader.Resolve(ctx, ref)
			if err == nil {
				def, err = e.validator.Validate(def)
			}
			e.loop.post(func() {
				e.loop.release()
				n := e.nodes[id]
				if err != nil {
					e.failLoad(n, err)
					return
				}
				if !n.loaded {
					e.completeLoad(n, def)
				}
			})
		}()
	})
}

// completeLoad marks a template (and every copy made from it) as loaded and
// reschedules the builds that were waiting on it.
func (e *Engine) completeLoad(n *node, def *domain.Definition) {
	n.def = def
	n.loaded = true
	if def.Singleton && n.working < 0 && len(n.copies) == 0 {
		n.instance = true
	}
	e.logger.Debug("blueprint loaded", "blueprint", n.name)
	e.emit(e.hooks.OnLoad, domain.EventLoad, n, -1, "", nil, nil, 0)

	affected := []*node{n}
	for _, cid := range n.copies {
		c := e.nodes[cid]
		c.def = def
		c.loaded = true
		affected = append(affected, c)
	}
	for _, a := range affected {
		e.scheduleBuild(a)
		for _, pid := range a.parents {
			e.scheduleBuild(e.nodes[pid])
		}
	}
}

func (e *Engine) failLoad(n *node, err error) {
	loadErr := &domain.LoadError{Name: n.ref.String(), Err: err}
	e.logger.Error("blueprint load failed", "blueprint", n.name, "err", err)
	e.emit(e.hooks.OnLoad, domain.EventLoad, n, -1, "", nil, loadErr, 0)
}

// initialize runs the node's Init once. cont runs after a successful init.
func (e *Engine) initialize(n *node, cont func()) {
	if n.initialized {
		if cont != nil {
			cont()
		}
		return
	}
	if cont != nil {
		n.initWaiters = append(n.initWaiters, cont)
	}
	if n.initializing {
		return
	}
	n.initializing = true

	id := n.id
	var once sync.Once
	e.loop.acquire()
	done := func(err error) {
		once.Do(func() {
			e.loop.post(func() {
				e.loop.release()
				e.finishInit(e.nodes[id], err)
			})
		})
	}

	props, err := e.mapper.Destructure(n.describe(domain.PhaseInit), n.initArgs)
	if err != nil {
		done(fmt.Errorf("destructure: %w", err))
		return
	}
	if n.def.Init == nil {
		done(nil)
		return
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				done(fmt.Errorf("panic in init: %v", r))
			}
		}()
		n.def.Init(props, done)
	}()
}

func (e *Engine) finishInit(n *node, err error) {
	if err != nil {
		initErr := &domain.InitializationError{Blueprint: n.name, Err: err}
		e.logger.Error("blueprint init failed", "blueprint", n.name, "err", err)
		e.emit(e.hooks.OnInit, domain.EventInit, n, -1, "", nil, initErr, 0)
		n.initWaiters = nil
		return
	}

	n.initialized = true
	n.initializing = false
	n.initArgs = nil
	e.emit(e.hooks.OnInit, domain.EventInit, n, -1, "", nil, nil, 0)

	waiters := n.initWaiters
	n.initWaiters = nil
	for _, w := range waiters {
		w()
	}
}

// flowsReady reports whether the owner and every full-node target are loaded
// and initialized, kicking off the initializations that are missing.
func (e *Engine) flowsReady(o *node) bool {
	if !o.loaded {
		return false
	}
	rebuild := func() { e.scheduleBuild(o) }
	if !o.initialized {
		e.initialize(o, rebuild)
		return false
	}

	ready := true
	for _, p := range o.pipes {
		t := e.nodes[p.target]
		if t.isAdapter() {
			continue
		}
		if !t.loaded {
			ready = false
			continue
		}
		if !t.initialized {
			ready = false
			e.initialize(t, rebuild)
		}
	}
	return ready
}

// processFlow builds the owner's events and flow from its pipes and starts it.
// flow[0] is always the owner itself; a step at flow[k] signals into k+1.
func (e *Engine) processFlow(o *node) error {
	if o.processingFlow || len(o.pipes) == 0 {
		return nil
	}
	if !e.flowsReady(o) {
		return nil
	}

	flow := []*pipe{{direction: domain.DirectionTo, target: o.id, next: 1}}
	var events []*pipe
	for _, p := range o.pipes {
		t := e.nodes[p.target]
		switch p.direction {
		case domain.DirectionFrom:
			if !t.hasEvents() {
				return &domain.ConfigurationError{Blueprint: o.name, Op: "from", Err: fmt.Errorf("%w: %s", domain.ErrNoEvents, t.name)}
			}
			p.next = 0
			events = append(events, p)
		case domain.DirectionTo:
			if !t.hasInput() {
				return &domain.ConfigurationError{Blueprint: o.name, Op: "to", Err: fmt.Errorf("%w: %s", domain.ErrNoInput, t.name)}
			}
			p.next = len(flow) + 1
			flow = append(flow, p)
		}
	}

	o.flow, o.events = flow, events
	o.processingFlow = true
	o.dirty = false

	e.logger.Debug("flow built", "blueprint", o.name, "steps", len(flow), "events", len(events))
	e.emit(e.hooks.OnBuild, domain.EventBuild, o, -1, "", nil, nil, 0)

	e.startFlow(o)
	return nil
}

// startFlow fires every event source and delivers queued triggers.
func (e *Engine) startFlow(o *node) {
	for _, p := range o.events {
		t := e.nodes[p.target]
		if !t.isAdapter() && (len(t.pipes) > 0 || t.processingFlow) {
			e.logger.Debug("event source owns a flow, waiting for it to finish", "blueprint", o.name, "source", t.name)
			continue
		}
		e.callOn(o, p, t)
	}

	triggers := o.triggers
	o.triggers = nil
	for _, data := range triggers {
		e.loop.post(func() { e.nextPipe(o, 0, nil, data) })
	}
}

func (e *Engine) callOn(o *node, p *pipe, t *node) {
	st := e.newStep(o, 0, t.name, false)
	props, err := e.mapper.Destructure(t.describe(domain.PhaseOn), p.params)
	if err != nil {
		st.Error(fmt.Errorf("destructure %s: %w", t.name, err))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			st.Error(fmt.Errorf("panic in %s: %v", t.name, r))
		}
	}()

	switch t.kind {
	case kindConstant:
		st.Out(t.constant)
	case kindFunction:
		e.settle(st, t.adapt(st, nil, props, st.callback))
	default:
		t.def.On(st, props)
	}
}
