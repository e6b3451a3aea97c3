package runtime

import (
	"fmt"

	"github.com/aretw0/frame/pkg/domain"
)

// Blueprint is a handle on a node owned by an Engine. Handles are cheap values;
// wiring calls return the handle of the working copy they attached to.
type Blueprint struct {
	eng *Engine
	id  NodeID
	err error
}

// Name returns the normalized blueprint name.
func (b *Blueprint) Name() string {
	if n := b.node(); n != nil {
		return n.name
	}
	return ""
}

// ID returns the node's arena id.
func (b *Blueprint) ID() NodeID { return b.id }

// Err returns the first configuration error recorded by a chained To or From.
func (b *Blueprint) Err() error { return b.err }

// To appends target to this blueprint's flow. Configuration errors are
// recorded on the returned handle (see Err) and make later chained calls no-ops.
func (b *Blueprint) To(target any, params ...any) *Blueprint {
	return b.chain(domain.DirectionTo, target, params)
}

// From registers target as an event source that starts this blueprint's flow.
func (b *Blueprint) From(target any, params ...any) *Blueprint {
	return b.chain(domain.DirectionFrom, target, params)
}

func (b *Blueprint) chain(direction domain.Direction, target any, params []any) *Blueprint {
	if b != nil && b.err != nil {
		return b
	}
	owner, err := b.AddPipe(direction, target, params)
	if err != nil {
		if b != nil && b.eng != nil {
			b.eng.logger.Error("pipe registration failed", "blueprint", b.Name(), "direction", string(direction), "err", err)
		}
		if b == nil {
			return &Blueprint{id: -1, err: err}
		}
		return &Blueprint{eng: b.eng, id: b.id, err: err}
	}
	return owner
}

// AddPipe registers a pipe and returns the owner's working copy.
// Targets that are not blueprints are wrapped in function or constant adapters.
func (b *Blueprint) AddPipe(direction domain.Direction, target any, params []any) (*Blueprint, error) {
	if b == nil || b.eng == nil || b.node() == nil || b.node().isAdapter() {
		return nil, &domain.ConfigurationError{Blueprint: b.describe(), Op: string(direction), Err: domain.ErrInvalidBlueprint}
	}
	e := b.eng
	tmpl := b.node()
	if direction != domain.DirectionTo && direction != domain.DirectionFrom {
		return nil, &domain.ConfigurationError{Blueprint: tmpl.name, Op: string(direction), Err: fmt.Errorf("unknown direction %q", direction)}
	}

	t, err := e.resolveTarget(target)
	if err != nil {
		return nil, &domain.ConfigurationError{Blueprint: tmpl.name, Op: string(direction), Err: err}
	}

	owner := e.instantiate(tmpl)
	owner.pipes = append(owner.pipes, &pipe{direction: direction, target: t.id, params: params})
	if owner.processingFlow {
		owner.dirty = true
	}
	if !t.isAdapter() && t.id != owner.id {
		t.addParent(owner.id)
	}

	e.logger.Debug("pipe registered", "blueprint", owner.name, "direction", string(direction), "target", t.name)
	e.scheduleBuild(owner)
	return e.handle(owner.id), nil
}

// resolveTarget turns a To/From argument into a node: blueprints resolve to
// their working copy, definitions are registered, anything else is adapted.
func (e *Engine) resolveTarget(target any) (*node, error) {
	switch t := target.(type) {
	case nil:
		return nil, domain.ErrNoTarget
	case *Blueprint:
		if t == nil || t.node() == nil {
			return nil, domain.ErrNoTarget
		}
		if t.err != nil {
			return nil, t.err
		}
		if t.eng != e {
			return nil, domain.ErrForeignTarget
		}
		return e.instantiate(t.node()), nil
	case *domain.Definition:
		bp, err := e.Define(t)
		if err != nil {
			return nil, err
		}
		return e.instantiate(bp.node()), nil
	}

	if fn, ok := adaptFunction(target); ok {
		n := e.newNode(kindFunction, adapterName(kindFunction, target))
		n.adapt = fn
		n.loaded, n.initialized, n.instance = true, true, true
		return n, nil
	}
	n := e.newNode(kindConstant, adapterName(kindConstant, target))
	n.constant = target
	n.loaded, n.initialized, n.instance = true, true, true
	return n, nil
}

// New returns a fresh working copy constructed with args, which are handed to
// Init after destructuring. Singletons return themselves.
func (b *Blueprint) New(args ...any) *Blueprint {
	n := b.node()
	if n == nil || n.isAdapter() {
		return &Blueprint{eng: b.eng, id: -1, err: &domain.ConfigurationError{Blueprint: b.describe(), Op: "new", Err: domain.ErrInvalidBlueprint}}
	}
	if n.template >= 0 {
		n = b.eng.nodes[n.template]
	}
	if n.def != nil && n.def.Singleton {
		n.instance = true
		if !n.initialized && !n.initializing {
			n.initArgs = args
		}
		return b.eng.handle(n.id)
	}
	c := b.eng.copyOf(n)
	c.initArgs = args
	return b.eng.handle(c.id)
}

// Value returns a promise resolved with the data that reaches the end of this
// blueprint's next completed flow. Repeated calls before completion share it.
//
// Value instantiates the blueprint, which mutates the engine's node arena. Call
// it before Run or Drain start, or from the loop via Engine.Post. Engine.Snapshot
// has the same rule.
func (b *Blueprint) Value() *domain.Promise {
	n := b.node()
	if n == nil {
		p := domain.NewPromise()
		p.Reject(&domain.ConfigurationError{Op: "value", Err: domain.ErrInvalidBlueprint})
		return p
	}
	return b.eng.instantiate(n).promise()
}

// Trigger starts this blueprint's flow at step 0 with data, as an event would.
// It is safe to call from any goroutine. If the flow is not built yet the data
// is delivered once it is.
func (b *Blueprint) Trigger(data any) {
	if b == nil || b.eng == nil || b.id < 0 {
		return
	}
	e, id := b.eng, b.id
	e.loop.post(func() {
		e.resume(e.instantiate(e.nodes[id]), data)
	})
}

// State reports the lifecycle state of the node behind the handle.
func (b *Blueprint) State() domain.NodeState {
	if n := b.node(); n != nil {
		if n.working >= 0 {
			n = b.eng.nodes[n.working]
		}
		return n.state()
	}
	return domain.StateStub
}

func (b *Blueprint) node() *node {
	if b == nil || b.eng == nil {
		return nil
	}
	return b.eng.node(b.id)
}

func (b *Blueprint) describe() string {
	if n := b.node(); n != nil {
		return n.name
	}
	return "<nil>"
}
