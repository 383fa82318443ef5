// Package main implements the TaskKollecta side-effect server: it turns
// committed task, comment and membership mutations into notifications,
// emails, automation rule writes and recurring task instances.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "server",
		Short: "TaskKollecta notification and automation server",
		Long: `Runs the reactive side-effect pipeline of TaskKollecta.

Configuration is read from config.yaml in the working directory and from
TASKKOLLECTA_* environment variables, which take precedence.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(fmt.Sprintf(
		"TaskKollecta server %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newRecurrenceCmd())
	root.AddCommand(newTokenCmd())
	return root
}
