package commands

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/reportql/internal/adapters/telemetry"
	"github.com/satishbabariya/reportql/internal/server"
	"github.com/satishbabariya/reportql/internal/service"
	"github.com/satishbabariya/reportql/internal/ui"
)

// NewServeCommand creates the serve command.
func NewServeCommand(app *App) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reports over a JSON HTTP API",
		Long: `Serve reports over a JSON HTTP API until interrupted.

Without a database URL only the template endpoints work; report endpoints
answer 503.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := app.Config()
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			c, err := app.Container()
			if err != nil {
				return err
			}

			var health server.Pinger
			if err := c.Open(ctx); err != nil {
				if !errors.Is(err, service.ErrNoDatabase) {
					return err
				}
				ui.PrintWarning("No database configured, serving templates only")
			} else {
				health = c.DatabaseAdapter()
			}

			var metrics server.MetricsSource
			if m, ok := c.Telemetry().(*telemetry.MetricsTelemetry); ok {
				metrics = m
			}

			srv := server.NewServer(server.Config{
				Reports:         c.ReportService(),
				Health:          health,
				Metrics:         metrics,
				Addr:            cfg.Server.Addr(),
				ShutdownTimeout: time.Duration(cfg.Server.ShutdownTimeout) * time.Second,
				Logger:          c.Logger(),
			})

			ui.PrintInfo("Serving reports on http://%s", displayAddr(cfg.Server.Host, cfg.Server.Addr()))
			return srv.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "interface to listen on (default all)")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on")
	return cmd
}

func displayAddr(host, addr string) string {
	if host == "" {
		return "localhost" + addr
	}
	return addr
}
