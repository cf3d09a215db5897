package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version info",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "coldmail %s (service %s)\n", version, defaultServiceURL)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
