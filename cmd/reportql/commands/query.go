package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/reportql/internal/core/report/parser"
	"github.com/satishbabariya/reportql/internal/ui"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(app *App) *cobra.Command {
	var (
		opts    parser.Args
		output  string
		strict  bool
		explain bool
	)

	cmd := &cobra.Command{
		Use:   "query <table>",
		Short: "Run a report against a table",
		Long: `Run a report against a table. Dotted columns such as community.name pull
fields from related tables through their foreign keys.

Filters use "column op value" expressions:

  reportql query classes --columns title,community.name \
    --filter "community.name eq Provo" --sort title:asc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !ui.ValidOutput(output) {
				return fmt.Errorf("unknown output format %q", output)
			}
			opts.Table = args[0]
			req, err := opts.Request()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			c, err := app.Open(ctx)
			if err != nil {
				return err
			}
			svc := c.ReportService()
			out := cmd.OutOrStdout()

			if explain {
				exp, err := svc.Explain(ctx, req)
				if err != nil {
					return err
				}
				if output == ui.OutputJSON {
					return ui.WriteJSON(out, exp)
				}
				return ui.PrintMarkdown(out, ui.ExplanationMarkdown(exp))
			}

			if !strict {
				return ui.PrintRows(out, svc.Run(ctx, req), output)
			}
			rows, err := svc.Query(ctx, req)
			if err != nil {
				return err
			}
			return ui.PrintRows(out, rows, output)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&opts.Columns, "columns", "c", nil, "columns to select, comma separated (repeatable)")
	flags.BoolVar(&opts.IncludeRelations, "include-relations", false, "project columns of every joined relation")
	flags.StringArrayVarP(&opts.Filters, "filter", "f", nil, `filter expression, e.g. "age between 18 and 30" (repeatable)`)
	flags.StringArrayVarP(&opts.Sorts, "sort", "s", nil, "sort column[:asc|desc] (repeatable)")
	flags.StringArrayVar(&opts.Relations, "relation", nil, "related table columns, e.g. community=name,city (repeatable)")
	flags.StringVarP(&output, "output", "o", ui.OutputTable, "output format: table or json")
	flags.BoolVar(&strict, "strict", false, "fail on errors instead of printing no rows")
	flags.BoolVar(&explain, "explain", false, "show the compiled plan and SQL without running it")

	return cmd
}
