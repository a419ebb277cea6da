package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autobrr/feedbot/pkg/runtime"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("feedbot %s (commit %s, built %s)\n", runtime.Version, runtime.GitCommit, runtime.Timestamp)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
