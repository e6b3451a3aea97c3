package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/frame/pkg/blueprints"
	"github.com/aretw0/frame/pkg/dsl"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
)

func main() {
	targetDir := "examples/starter"
	if len(os.Args) > 1 {
		targetDir = os.Args[1]
	}

	if err := os.MkdirAll(targetDir, 0755); err != nil {
		panic(err)
	}

	fmt.Printf("Generating starter catalog in: %s\n", targetDir)

	// No versioning: plain file generation.
	repo, err := loam.Init(targetDir, loam.WithVersioning(false), loam.WithForceTemp(false))
	check(err)
	ctx := context.TODO()

	// One manifest per standard blueprint, so the catalog can be edited locally.
	for _, m := range blueprints.Manifests() {
		err := repo.Save(ctx, core.Document{
			ID:      m.Name + ".md",
			Content: m.Description,
			Metadata: core.Metadata{
				"impl": m.Impl,
			},
		})
		check(err)
	}

	// A renamed blueprint with its own parameters.
	err = repo.Save(ctx, core.Document{
		ID:      "shout.md",
		Content: "Upper-cases its input and prints it.",
		Metadata: core.Metadata{
			"impl": blueprints.Prefix + "upper",
		},
	})
	check(err)

	pipelines := []*dsl.Pipeline{
		dsl.NewPipeline("hello", "trim").
			FromValue("  hello frame  ").
			To("shout").
			To("print", "> "),
		dsl.NewPipeline("tick", "identity").
			From("ticker", 3, 200).
			To("format", "tick %v").
			To("print"),
	}
	data, err := dsl.Encode(pipelines)
	check(err)
	check(os.WriteFile(filepath.Join(targetDir, "pipelines.yaml"), data, 0644))

	fmt.Println("Done. Run it with: frame run", targetDir)
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
