package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/reportql/internal/ui"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "tables <table>",
		Short: "Show a table's columns and foreign keys",
		Long: `Show a table's columns and the foreign keys reports can follow. Each
foreign key makes its referenced table available as a dotted column prefix.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := app.Open(ctx)
			if err != nil {
				return err
			}
			meta, err := c.ReportService().Relations(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output == ui.OutputJSON {
				return ui.WriteJSON(out, meta)
			}

			ui.PrintSection(meta.Name)
			headers, rows := ui.MetadataRows(meta)
			if err := ui.PrintTable(out, headers, rows); err != nil {
				return err
			}

			if related := meta.RelatedTables(); len(related) > 0 {
				ui.KeyValue(out, "Related tables", len(related))
				items := make([]string, len(related))
				for i, name := range related {
					items[i] = fmt.Sprintf("%s (e.g. --columns %s.%s)", name, name, c.Config().Report.IdentifierColumn)
				}
				ui.PrintList(out, items)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", ui.OutputTable, "output format: table or json")
	return cmd
}
