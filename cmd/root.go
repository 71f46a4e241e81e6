package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rpabridge",
	Short: "Middleware between a voice agent and an RPA orchestrator",
	Long: `rpabridge accepts tool calls from a voice-assistant platform,
launches the matching automation on an RPA orchestrator, waits for the
job to finish, and relays its output as clean JSON.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
