package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/frame"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of frame",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("frame version %s\n", strings.TrimSpace(frame.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
