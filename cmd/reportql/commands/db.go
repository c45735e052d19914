package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/reportql/internal/ui"
)

// NewDBCommand creates the parent db command.
func NewDBCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect the database connection",
	}

	cmd.AddCommand(NewDBCheckCommand(app))
	return cmd
}

// NewDBCheckCommand creates the db check command.
func NewDBCheckCommand(app *App) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check connectivity and server version",
		Long: `Connect to the configured database, read its server version and compare
it with the oldest version reportql supports for that dialect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			start := time.Now()
			c, err := app.Open(ctx)
			if err != nil {
				return err
			}
			ui.PrintSuccess("Connected to %s in %s", c.DatabaseAdapter().GetDialect(), time.Since(start).Round(time.Millisecond))

			check, err := c.Metadata().CheckServer(ctx)
			if err != nil {
				return fmt.Errorf("failed to check server version: %w", err)
			}

			out := cmd.OutOrStdout()
			ui.KeyValue(out, "Server", check.Raw)
			ui.KeyValue(out, "Version", check.Version.String())
			ui.KeyValue(out, "Minimum", check.Minimum.String())
			if !check.Supported {
				ui.PrintWarning("%s %s is older than the supported minimum %s", check.Dialect, check.Version, check.Minimum)
				return fmt.Errorf("unsupported %s version %s", check.Dialect, check.Version)
			}
			ui.PrintSuccess("Server version is supported")
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "overall timeout for the check")
	return cmd
}
