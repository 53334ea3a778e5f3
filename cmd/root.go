package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adii83/steam-metadata-archive/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "steam-archive",
	Short: "Incremental Steam catalog metadata archiver",
	Long:  "Mirrors the public appid list, walks it behind a resumable cursor, and archives per-item store metadata together with a DRM protection verdict.",
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
