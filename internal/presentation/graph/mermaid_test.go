package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/frame/internal/presentation/graph"
	"github.com/aretw0/frame/internal/runtime"
	"github.com/aretw0/frame/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []runtime.NodeSnapshot
		overlay  *graph.GraphOverlay
		contains []string
	}{
		{
			name: "Owner and pipes",
			nodes: []runtime.NodeSnapshot{
				{ID: 1, Name: "a", Kind: "blueprint", Pipes: []runtime.PipeSnapshot{
					{Direction: domain.DirectionFrom, Target: "constant(go)", TargetID: 2, Kind: "constant"},
					{Direction: domain.DirectionTo, Target: "b", TargetID: 3, Kind: "blueprint"},
					{Direction: domain.DirectionTo, Target: "function(func(interface {}) interface {})", TargetID: 4, Kind: "function"},
				}},
				{ID: 3, Name: "b", Kind: "blueprint"},
			},
			contains: []string{
				`n1(("a"))`,
				`n2[/"constant(go)"/]`,
				`n3["b"]`,
				`n4[["function(func(interface {}) interface {})"]]`,
				`n2 -. on .-> n1`,
				`n1 -- "1" --> n3`,
				`n1 -- "2" --> n4`,
			},
		},
		{
			name:     "Quotes are escaped",
			nodes:    []runtime.NodeSnapshot{{ID: 0, Name: `say "hi"`, Kind: "blueprint"}},
			contains: []string{`n0["say 'hi'"]`},
		},
		{
			name: "Overlay",
			nodes: []runtime.NodeSnapshot{
				{ID: 0, Name: "a", Kind: "blueprint", State: domain.StateProcessing},
				{ID: 1, Name: "b", Kind: "blueprint", State: domain.StateInitialized},
			},
			contains: []string{
				"classDef current",
				"class n0 current;",
				"class n1 visited;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overlay := tt.overlay
			if tt.name == "Overlay" {
				overlay = graph.OverlayFromSnapshots(tt.nodes)
			}
			got := graph.GenerateMermaid(tt.nodes, overlay)
			if !strings.HasPrefix(got, "graph TD\n") {
				t.Errorf("missing header:\n%s", got)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("expected output to contain %q\nGot:\n%s", want, got)
				}
			}
		})
	}
}

func TestGenerateMermaid_FromEngine(t *testing.T) {
	eng := runtime.NewEngine(nil)
	a, err := eng.Define(&domain.Definition{Name: "a"})
	if err != nil {
		t.Fatal(err)
	}
	a.From("go").To(func(v any) any { return v })

	got := graph.GenerateMermaid(eng.Snapshot(), nil)
	if strings.Count(got, "-->") != 1 || strings.Count(got, ".->") != 1 {
		t.Errorf("expected one to pipe and one from pipe, got:\n%s", got)
	}
	if strings.Contains(got, "classDef") {
		t.Error("no overlay requested")
	}
}
