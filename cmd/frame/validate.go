package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/frame/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check the catalog and pipelines for consistency",
	Long:  `Loads every manifest of the catalog, checks it binds to a known implementation and wires the pipelines file to report configuration errors.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := runOptions(cmd, args)
		opts.File, _ = cmd.Flags().GetString("file")

		if err := cli.Validate(context.Background(), opts); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Catalog is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringP("file", "f", "", "Pipelines file (default: pipelines.yaml in the catalog directory)")
}
