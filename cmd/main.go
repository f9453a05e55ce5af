package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version info (set by ldflags)
	version = "dev"

	// Flags
	debug bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fuelbot",
		Short: "EVE Online structure fuel monitor",
		Long: `fuelbot checks the fuel of your corporation's structures and reports every
danger/warning/good state change to Slack, Telegram and Kafka.

  fuelbot run [config]     Perform one fuel check and exit (for cron)
  fuelbot serve [config]   Serve the HTTP trigger and status API`,
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newRunCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		// Error already printed by cobra
		os.Exit(1)
	}
}
