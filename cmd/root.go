package cmd

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "appointment-service",
	Short: "Clinic appointment service",
	Long: `Clinic appointment service managing appointment scheduling for the clinic network.

Functions:
- Accept appointment, patient and physician commands over a REST HTTP server
- Maintain an append-only audit trail of every state transition
- Publish domain events to the clinic topic for read-model projection
- Answer appointment reads through a cache / search / database / peer fallback chain`,
}

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing config.yaml")
}
