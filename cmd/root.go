package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "options-advisor",
	Short: "Options spread advisor and strategy backtester",
}

func init() {
	// Environment overrides are optional; a missing .env is not an error.
	_ = godotenv.Load()

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(backtestCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
