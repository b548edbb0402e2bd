package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/starschema/version"
)

var configFile string

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "starschema",
		Short: "Load a star-schema warehouse from staged event and song data",
		Long: `starschema provisions the warehouse tables, copies raw event logs and the
song catalog into staging tables, derives the songplays fact table and its
dimensions, and verifies that every table received rows.

Stages run as a dependency graph: independent stages of a tier run in
parallel, failed statements are retried, and a failure skips only the
stages that depend on it.`,
		Version:      version.GetShortVersion(),
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (default: search ./cmd/starschema, ./config, .)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(loadErrorsCmd())
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}
