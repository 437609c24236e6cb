package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"devplanet/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the devplanet version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("devplanet version %s\n", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
