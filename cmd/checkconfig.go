package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autobrr/feedbot/pkg/config"
)

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Load and validate the configuration, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPaths)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		fmt.Printf("config OK: %d feeds, qbittorrent at %s\n", len(cfg.Feeds), cfg.QBittorrent.Address)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkConfigCmd)
}
