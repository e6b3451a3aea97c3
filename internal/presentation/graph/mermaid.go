package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/frame/internal/runtime"
	"github.com/aretw0/frame/pkg/domain"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	Visited    []runtime.NodeID
	Processing []runtime.NodeID
}

// OverlayFromSnapshots marks initialized nodes as visited and running owners as processing.
func OverlayFromSnapshots(nodes []runtime.NodeSnapshot) *GraphOverlay {
	o := &GraphOverlay{}
	for _, n := range nodes {
		switch n.State {
		case domain.StateProcessing:
			o.Processing = append(o.Processing, n.ID)
		case domain.StateInitialized:
			o.Visited = append(o.Visited, n.ID)
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart syntax string from node snapshots.
// It applies semantic styling:
// - Flow owner: ((Circle))
// - Function adapter: [[Subroutine]]
// - Constant adapter: [/Parallelogram/]
// - Default: [Rectangle]
// "to" pipes are solid arrows labelled with their flow position; "from" pipes
// are dotted arrows from the event source into the owner.
func GenerateMermaid(nodes []runtime.NodeSnapshot, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	declared := make(map[runtime.NodeID]bool)
	declare := func(id runtime.NodeID, name, kind string, owner bool) {
		if declared[id] {
			return
		}
		declared[id] = true

		opener, closer := "[", "]"
		switch {
		case kind == "function":
			opener, closer = "[[", "]]"
		case kind == "constant":
			opener, closer = "[/", "/]"
		case owner:
			opener, closer = "((", "))"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", nodeID(id), opener, escape(name), closer)
	}

	for _, n := range nodes {
		declare(n.ID, n.Name, n.Kind, len(n.Pipes) > 0)
	}

	for _, n := range nodes {
		step := 0
		for _, p := range n.Pipes {
			declare(p.TargetID, p.Target, p.Kind, false)
			switch p.Direction {
			case domain.DirectionFrom:
				fmt.Fprintf(&sb, "    %s -. on .-> %s\n", nodeID(p.TargetID), nodeID(n.ID))
			default:
				step++
				fmt.Fprintf(&sb, "    %s -- \"%d\" --> %s\n", nodeID(n.ID), step, nodeID(p.TargetID))
			}
		}
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		for _, id := range overlay.Visited {
			if declared[id] {
				fmt.Fprintf(&sb, "    class %s visited;\n", nodeID(id))
			}
		}
		for _, id := range overlay.Processing {
			if declared[id] {
				fmt.Fprintf(&sb, "    class %s current;\n", nodeID(id))
			}
		}
	}

	return sb.String()
}

// nodeID keys Mermaid nodes by arena id, since working copies share names.
func nodeID(id runtime.NodeID) string {
	return fmt.Sprintf("n%d", id)
}

func escape(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}
