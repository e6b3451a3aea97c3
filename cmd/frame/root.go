package main

import (
	"fmt"
	"os"

	"github.com/aretw0/frame/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "frame",
	Short: "Frame is a flow-based programming runtime",
	Long:  `Frame wires blueprints from a catalog into pipelines and pushes data through them.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing the blueprint catalog")
	rootCmd.PersistentFlags().Bool("debug", false, "Log engine lifecycle events to stderr")
	rootCmd.PersistentFlags().String("catalog-url", "", "Serve http:// blueprints from a remote catalog")
	rootCmd.PersistentFlags().String("redis-addr", "", "Serve redis:// blueprints from this Redis server")
	rootCmd.PersistentFlags().String("catalog-key", os.Getenv("FRAME_CATALOG_KEY"), "Base64 AES-256 key sealing redis:// manifests")
}

// runOptions reads the persistent flags shared by every command.
// A malformed catalog key aborts the command.
func runOptions(cmd *cobra.Command, args []string) cli.RunOptions {
	opts := cli.RunOptions{}
	opts.RepoPath, _ = cmd.Flags().GetString("dir")
	if !cmd.Flags().Changed("dir") && len(args) > 0 {
		opts.RepoPath = args[0]
	}
	opts.Debug, _ = cmd.Flags().GetBool("debug")
	opts.CatalogURL, _ = cmd.Flags().GetString("catalog-url")
	opts.RedisAddr, _ = cmd.Flags().GetString("redis-addr")

	encoded, _ := cmd.Flags().GetString("catalog-key")
	key, err := cli.DecodeKey(encoded)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	opts.CatalogKey = key
	return opts
}
