// Package cmd provides the command-line interface for devsim.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "devsim",
	Short: "Devsim runs simulated hardware devices.",
	Long: `Devsim runs simulated hardware devices. The cycle engine drives a ` +
		`device through wall-clock-paced cycles, with a configurable speed ` +
		`factor, and exposes a monitoring server for out-of-band control.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
