package main

import (
	"fmt"
	"os"

	"github.com/aretw0/frame/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Run the pipelines of a catalog",
	Long: `Wires every pipeline of the pipelines file onto a new engine and runs it.
By default the engine is drained: the command returns once no work is left.
With --follow it keeps running (for tickers and other event sources) until interrupted.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := runOptions(cmd, args)
		opts.File, _ = cmd.Flags().GetString("file")
		opts.Follow, _ = cmd.Flags().GetBool("follow")
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		opts.Timeout, _ = cmd.Flags().GetDuration("timeout")

		if err := cli.Execute(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("file", "f", "", "Pipelines file (default: pipelines.yaml in the catalog directory)")
	runCmd.Flags().Bool("follow", false, "Keep running until interrupted")
	runCmd.Flags().BoolP("watch", "w", false, "Run in development mode, restarting on catalog changes")
	runCmd.Flags().Duration("timeout", 0, "Fail if the pipelines do not settle in time")

	rootCmd.Run = runCmd.Run
}
