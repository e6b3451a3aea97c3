package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/frame/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Serve the blueprint catalog over HTTP",
	Long: `Exposes the catalog as a JSON API that other engines can load http:// blueprints from.
With --pipelines the pipelines file runs alongside and its metrics and graph are served too.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := runOptions(cmd, args)
		opts.File, _ = cmd.Flags().GetString("file")

		sopts := cli.ServeOptions{}
		port, _ := cmd.Flags().GetString("port")
		sopts.Addr = ":" + port
		sopts.Protocol, _ = cmd.Flags().GetString("protocol")
		sopts.Pipelines, _ = cmd.Flags().GetBool("pipelines")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		if err := cli.Serve(sigCtx, opts, sopts); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Frame server stopped gracefully")
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("protocol", "", "Catalog protocol to serve (file, mem, redis, http)")
	serveCmd.Flags().Bool("pipelines", false, "Run the pipelines file while serving")
	serveCmd.Flags().StringP("file", "f", "", "Pipelines file (default: pipelines.yaml in the catalog directory)")
}
