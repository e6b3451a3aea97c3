package main

import (
	"fmt"
	"os"

	"github.com/aretw0/frame/internal/cli"
	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish [dir]",
	Short: "Copy the local catalog to Redis",
	Long: `Uploads every manifest of the catalog directory to the Redis server given by --redis-addr,
so other engines can load them with redis:// references. With --catalog-key the manifests are sealed at rest.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := runOptions(cmd, args)
		redact, _ := cmd.Flags().GetStringSlice("redact")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		n, err := cli.Publish(ctx, opts, cli.PublishOptions{Redact: redact})
		if err != nil {
			fmt.Printf("Publish failed after %d blueprints: %v\n", n, err)
			os.Exit(1)
		}
		fmt.Printf("Published %d blueprints to %s\n", n, opts.RedisAddr)
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().StringSlice("redact", nil, "Metadata key patterns to mask before upload (regexp)")
}
