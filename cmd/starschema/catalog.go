package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kbukum/starschema/catalog"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the statement catalog",
	}
	cmd.AddCommand(catalogListCmd())
	cmd.AddCommand(catalogRenderCmd())
	return cmd
}

func catalogListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List statement templates and their placeholders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := catalog.Sparkify()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tPLACEHOLDERS")
			for _, name := range cat.Names() {
				tmpl, err := cat.Template(name)
				if err != nil {
					return err
				}
				placeholders := strings.Join(tmpl.Placeholders(), ", ")
				if placeholders == "" {
					placeholders = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\n", name, placeholders)
			}
			return tw.Flush()
		},
	}
}

func catalogRenderCmd() *cobra.Command {
	var params map[string]string

	cmd := &cobra.Command{
		Use:   "render NAME",
		Short: "Render one template with the given parameters",
		Example: `  starschema catalog render copy_staging_events \
    --param bucket=udacity-dend --param iam_role=arn:aws:iam::123456789012:role/dwhRole \
    --param region=us-west-2 --param format=s3://udacity-dend/log_json_path.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := catalog.Sparkify().Template(args[0])
			if err != nil {
				return err
			}
			sql, err := catalog.Render(tmpl, params)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(sql))
			return nil
		},
	}

	cmd.Flags().StringToStringVar(&params, "param", nil, "placeholder value as key=value (repeatable)")
	return cmd
}
