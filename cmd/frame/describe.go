package main

import (
	"fmt"
	"os"

	"github.com/aretw0/frame/internal/cli"
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe <blueprint>",
	Short: "Show a blueprint's manifest",
	Long:  `Prints the description and parameters of a blueprint. References may carry a protocol, e.g. mem://delay.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := runOptions(cmd, nil)
		plain, _ := cmd.Flags().GetBool("plain")

		out, err := cli.Describe(cmd.Context(), opts, args[0], !plain)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(out)
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().Bool("plain", false, "Print raw markdown")
}
