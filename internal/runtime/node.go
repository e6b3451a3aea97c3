package runtime

import (
	"sync"
	"time"

	"github.com/aretw0/frame/pkg/domain"
)

// NodeID addresses a node in the engine's arena.
type NodeID int

// kind is the capability variant of a node.
type kind int

const (
	kindFull kind = iota
	kindFunction
	kindConstant
)

func (k kind) String() string {
	switch k {
	case kindFunction:
		return "function"
	case kindConstant:
		return "constant"
	default:
		return "blueprint"
	}
}

// pipe is a registered edge. next is filled at build time: the flow position the
// target's signals advance the owner to.
type pipe struct {
	direction domain.Direction
	target    NodeID
	params    []any
	next      int
}

// node is the engine-side state of a blueprint, a working copy or an adapter.
// Every field except value is owned by the loop goroutine.
type node struct {
	id         NodeID
	name       string
	ref        domain.Ref
	instanceID string
	kind       kind

	def      *domain.Definition
	adapt    adapterFunc
	constant any

	// template is the node this one was copied from; working is the copy a
	// template hands out to To/From.
	template NodeID
	working  NodeID
	instance bool
	copies   []NodeID

	loaded         bool
	initialized    bool
	initializing   bool
	processingFlow bool
	initArgs       []any
	initWaiters    []func()

	pipes   []*pipe
	flow    []*pipe
	events  []*pipe
	parents []NodeID
	// dirty is set when pipes change after the last build.
	dirty     bool
	triggers  []any
	flowStart time.Time

	valueMu sync.Mutex
	value   *domain.Promise
}

func (n *node) isAdapter() bool { return n.kind != kindFull }

// describe returns the declared params of a phase.
func (n *node) describe(phase domain.Phase) []domain.Param {
	if n.def == nil {
		return nil
	}
	return n.def.Describe.Params(phase)
}

func (n *node) hasInput() bool {
	return n.isAdapter() || (n.def != nil && n.def.In != nil)
}

func (n *node) hasEvents() bool {
	return n.isAdapter() || (n.def != nil && n.def.On != nil)
}

func (n *node) addParent(owner NodeID) {
	for _, p := range n.parents {
		if p == owner {
			return
		}
	}
	n.parents = append(n.parents, owner)
}

func (n *node) state() domain.NodeState {
	switch {
	case n.processingFlow:
		return domain.StateProcessing
	case n.initialized:
		return domain.StateInitialized
	case n.loaded:
		return domain.StateLoaded
	default:
		return domain.StateStub
	}
}

// takePromise returns the requested value promise, clearing the request.
func (n *node) takePromise() *domain.Promise {
	n.valueMu.Lock()
	defer n.valueMu.Unlock()
	p := n.value
	n.value = nil
	return p
}

func (n *node) promise() *domain.Promise {
	n.valueMu.Lock()
	defer n.valueMu.Unlock()
	if n.value == nil {
		n.value = domain.NewPromise()
	}
	return n.value
}
