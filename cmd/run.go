package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/autobrr/feedbot/pkg/config"
	"github.com/autobrr/feedbot/pkg/logger"
	"github.com/autobrr/feedbot/pkg/supervisor"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the agent: poll feeds, dispatch downloads, reconcile torrent state",
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	log := logger.GetLogger("main")

	cfg, err := config.Load(configPaths)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		JSON:   cfg.Logging.JSON,
		Path:   cfg.Logging.Path,
		MaxMB:  cfg.Logging.MaxMB,
		Backup: cfg.Logging.Backup,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Infof("starting with %d feeds", len(cfg.Feeds))

	sup := supervisor.New(cfg)
	if err := sup.Run(ctx); err != nil && ctx.Err() == nil {
		log.WithError(err).Error("fatal error, exiting")
		os.Exit(1)
	}

	return nil
}
