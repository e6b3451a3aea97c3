package main

import (
	"fmt"
	"os"

	"github.com/aretw0/frame/internal/cli"
	"github.com/aretw0/frame/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [dir]",
	Short: "Export the pipeline graph visualization",
	Long:  `Wires the pipelines file without running it and outputs a Mermaid diagram (graph TD) of the blueprints and their pipes.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := runOptions(cmd, args)
		opts.File, _ = cmd.Flags().GetString("file")

		nodes, err := cli.Inspect(opts)
		if err != nil {
			fmt.Printf("Error inspecting pipelines: %v\n", err)
			os.Exit(1)
		}

		fmt.Print(graph.GenerateMermaid(nodes, nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("file", "f", "", "Pipelines file (default: pipelines.yaml in the catalog directory)")
}
