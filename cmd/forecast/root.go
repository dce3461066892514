package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Monthly financial projection CLI",
	Long:  "Project monthly actuals forward under a scenario and optionally narrate the result.",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		godotenv.Load()
	},
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
