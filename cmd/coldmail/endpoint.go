package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/coldmail/internal/progress"
)

var endpointCmd = &cobra.Command{
	Use:   "endpoint",
	Short: "Print the resolved generation service endpoint",
	Long:  "Reads the config and prints the generate-email URL and request timeout that submissions will use.",
	RunE:  runEndpoint,
}

func init() {
	rootCmd.AddCommand(endpointCmd)
}

func runEndpoint(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	client := newServiceClient(cfg, progress.Silent{}, setupLogger(debug))

	timeout := "transport default"
	if cfg.Service.Timeout > 0 {
		timeout = cfg.Service.Timeout.String()
	}

	fmt.Printf("%-10s %s\n", "Endpoint", client.Endpoint())
	fmt.Printf("%-10s %s\n", "Timeout", timeout)
	fmt.Printf("%-10s %s\n", "Built-in", defaultServiceURL)
	return nil
}
