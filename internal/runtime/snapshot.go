package runtime

import "github.com/aretw0/frame/pkg/domain"

// PipeSnapshot is a read-only view of a registered pipe.
type PipeSnapshot struct {
	Direction domain.Direction `json:"direction"`
	Target    string           `json:"target"`
	TargetID  NodeID           `json:"target_id"`
	Kind      string           `json:"kind"`
	Params    []any            `json:"params,omitempty"`
}

// NodeSnapshot is a read-only view of a node, used for introspection and graphs.
type NodeSnapshot struct {
	ID         NodeID           `json:"id"`
	Name       string           `json:"name"`
	InstanceID string           `json:"instance_id"`
	Kind       string           `json:"kind"`
	State      domain.NodeState `json:"state"`
	Instance   bool             `json:"instance"`
	Pipes      []PipeSnapshot   `json:"pipes,omitempty"`
	Parents    []NodeID         `json:"parents,omitempty"`
	FlowLength int              `json:"flow_length"`
}

// Snapshot describes the node behind the handle. Call it from the loop or
// while the engine is not running.
func (b *Blueprint) Snapshot() NodeSnapshot {
	n := b.node()
	if n == nil {
		return NodeSnapshot{ID: -1}
	}
	if !n.instance && n.working >= 0 {
		n = b.eng.nodes[n.working]
	}
	return b.eng.snapshot(n)
}

// Snapshot describes every blueprint node (adapters appear only as pipe targets).
// Templates that have a working copy are omitted in favour of the copy.
// It reads the node arena, so call it while the loop is idle or via Post.
func (e *Engine) Snapshot() []NodeSnapshot {
	out := make([]NodeSnapshot, 0, len(e.nodes))
	for _, n := range e.nodes {
		if n.isAdapter() || (!n.instance && n.working >= 0) {
			continue
		}
		out = append(out, e.snapshot(n))
	}
	return out
}

func (e *Engine) snapshot(n *node) NodeSnapshot {
	s := NodeSnapshot{
		ID:         n.id,
		Name:       n.name,
		InstanceID: n.instanceID,
		Kind:       n.kind.String(),
		State:      n.state(),
		Instance:   n.instance,
		Parents:    append([]NodeID(nil), n.parents...),
		FlowLength: len(n.flow),
	}
	for _, p := range n.pipes {
		t := e.nodes[p.target]
		s.Pipes = append(s.Pipes, PipeSnapshot{
			Direction: p.direction,
			Target:    t.name,
			TargetID:  t.id,
			Kind:      t.kind.String(),
			Params:    p.params,
		})
	}
	return s
}
