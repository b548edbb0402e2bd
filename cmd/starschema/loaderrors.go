package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kbukum/starschema/bootstrap"
	"github.com/kbukum/starschema/catalog"
	"github.com/kbukum/starschema/errors"
	"github.com/kbukum/starschema/warehouse"
)

func loadErrorsCmd() *cobra.Command {
	var (
		connection string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "load-errors",
		Short: "Show recent bulk load errors reported by the warehouse",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			app, err := bootstrap.NewApp(cfg)
			if err != nil {
				return err
			}
			if connection == "" {
				connection = cfg.Pipeline.Connection
			}
			if _, ok := cfg.Warehouse[connection]; !ok {
				return errors.NotFound("connection", connection)
			}
			tmpl, err := catalog.Sparkify().Template(catalog.SysLoadErrors)
			if err != nil {
				return err
			}
			sql, err := catalog.Render(tmpl, nil)
			if err != nil {
				return err
			}

			in := wire(app, []string{connection})
			return app.RunTask(cmd.Context(), func(ctx context.Context) error {
				client, err := in.conns.Resolve(connection)
				if err != nil {
					return err
				}
				res, err := warehouse.Query(ctx, client, sql, limit)
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&connection, "connection", "", "warehouse connection id (default: pipeline.connection)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows to print (0 prints all)")
	return cmd
}
