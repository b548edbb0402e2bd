package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/starschema/bootstrap"
	"github.com/kbukum/starschema/catalog"
	"github.com/kbukum/starschema/dag"
	"github.com/kbukum/starschema/logger"
	"github.com/kbukum/starschema/pipeline"
	"github.com/kbukum/starschema/stage"
)

// errRunFailed is returned when a run finished but not every stage succeeded.
type errRunFailed struct {
	report *dag.RunReport
}

func (e errRunFailed) Error() string {
	return fmt.Sprintf("run %s %s: %d failed, %d skipped", e.report.RunID, e.report.Status, len(e.report.Failures()), len(e.report.Skipped()))
}

func runCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the pipeline against the configured warehouse",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			opts := []bootstrap.Option{}
			if !quiet {
				opts = append(opts, bootstrap.WithSummary(cmd.ErrOrStderr()))
			}
			app, err := bootstrap.NewApp(cfg, opts...)
			if err != nil {
				return err
			}
			def, err := loadDefinition(cfg)
			if err != nil {
				return err
			}
			in := wire(app, def.Connections())

			return app.RunTask(cmd.Context(), func(ctx context.Context) error {
				var observe func(dag.NodeResult)
				if !quiet {
					observe = progress(cmd.ErrOrStderr())
				}
				report, err := execute(ctx, app, def, in, observe)
				if err != nil {
					return err
				}
				printReport(cmd.OutOrStdout(), report)
				if !report.Succeeded() {
					return errRunFailed{report: report}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the startup summary or stage progress")
	return cmd
}

func execute(ctx context.Context, app *bootstrap.App[*Config], def *pipeline.Definition, in *infra, observe func(dag.NodeResult)) (*dag.RunReport, error) {
	cfg := app.Cfg
	plan, err := pipeline.Build(def, catalog.Sparkify(), in.conns, pipeline.Options{
		Run: stage.RunOptions{
			StatementTimeout: cfg.Executor.StatementTimeout,
			Prober:           in.prober,
			Log:              logger.Get(logger.ComponentStage),
		},
		Log:     logger.Get(logger.ComponentStage),
		Metrics: in.metrics,
		Tracing: in.tracing,
	})
	if err != nil {
		return nil, err
	}

	exec := &dag.Executor{
		Name:        plan.Name,
		MaxParallel: cfg.Executor.MaxParallel,
		Retry: dag.RetryPolicy{
			MaxAttempts: cfg.Executor.MaxAttempts,
			Delay:       cfg.Executor.RetryDelay,
		},
		Log:     logger.Get(logger.ComponentExecutor),
		Metrics: in.metrics,
		Observe: observe,
	}
	return exec.Run(ctx, plan.Graph)
}
