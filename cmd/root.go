package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stagesignal/event-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "event-cli",
	Short: "Industry event and speaker acquisition pipeline",
	Long:  "Searches the web for industry events, filters candidates with an AI classifier, extracts structured event and speaker records through a tiered pipeline, and deduplicates the results.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
