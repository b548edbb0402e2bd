package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/starschema/bootstrap"
	"github.com/kbukum/starschema/catalog"
	"github.com/kbukum/starschema/pipeline"
)

func validateCmd() *cobra.Command {
	var showSQL, reveal bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Build the pipeline and render every statement without a warehouse",
		Long: `Validate loads the configuration and pipeline definition, checks the
dependency graph, prints its tiers and renders every stage's statements.
No warehouse connection is opened.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			app, err := bootstrap.NewApp(cfg)
			if err != nil {
				return err
			}
			return app.RunTask(cmd.Context(), func(ctx context.Context) error {
				def, err := loadDefinition(cfg)
				if err != nil {
					return err
				}
				plan, err := pipeline.Build(def, catalog.Sparkify(), offline(cfg.Warehouse), pipeline.Options{})
				if err != nil {
					return err
				}
				levels, err := plan.Levels()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "pipeline %s: %d stages in %d tiers\n\n", plan.Name, len(plan.Stages), len(levels))
				printLevels(out, levels)
				fmt.Fprintln(out)

				dryRun := plan.DryRun
				if reveal {
					dryRun = plan.DryRunRevealed
				}
				rendered, err := dryRun()
				printRendered(out, rendered, showSQL)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&showSQL, "sql", false, "print the rendered statements")
	cmd.Flags().BoolVar(&reveal, "reveal", false, "print sensitive parameters such as the IAM role unmasked")
	return cmd
}
