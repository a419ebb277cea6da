// Package cmd holds the cobra CLI surface: run, version, check-config.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPaths []string

var rootCmd = &cobra.Command{
	Use:   "feedbot",
	Short: "RSS-driven torrent acquisition and reconciliation agent",
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&configPaths, "config", defaultConfigPaths(),
		"candidate configuration file paths, probed in order")
}

// defaultConfigPaths mirrors the candidate list the original acquisition
// agent probed: a container-mounted path first, then the working
// directory.
func defaultConfigPaths() []string {
	return []string{"/config/config.yaml", "config.yaml"}
}

// Execute runs the CLI; main calls this and exits with its return code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
