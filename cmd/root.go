package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tommy-klein/heatdays/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "heatdays",
	Short: "Critical-day analysis of gridded climate data",
	Long:  "Reads a gridded daily climate dataset, subsets it to a country's administrative regions, and aggregates threshold-exceedance counts by year and region into a map and a chart.",
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
