// Package commands implements CLI commands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/satishbabariya/reportql/internal/config"
	"github.com/satishbabariya/reportql/internal/debug"
	"github.com/satishbabariya/reportql/internal/ui"
	"github.com/satishbabariya/reportql/internal/utils/container"
)

// App carries state shared by every command: the loaded configuration and a
// lazily built container.
type App struct {
	configFile string
	noColor    bool
	logJSON    bool

	cfg       *config.Config
	logger    *slog.Logger
	container *container.Container
}

// NewApp creates an App with nothing loaded.
func NewApp() *App {
	return &App{logger: debug.Logger()}
}

// Load reads configuration and sets up logging. Commands that work without
// a config file skip it.
func (a *App) Load() error {
	if a.noColor {
		ui.DisableColor()
	}

	cfg, err := config.LoadConfig(a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	format := debug.FormatText
	if a.logJSON {
		format = debug.FormatJSON
	}
	a.logger = debug.Init(debug.Options{Verbose: cfg.Debug, Format: format})
	a.logger.Debug("configuration loaded", "file", viper.ConfigFileUsed(), "provider", cfg.Database.Provider)
	return nil
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Container builds the dependency container on first use.
func (a *App) Container() (*container.Container, error) {
	if a.container != nil {
		return a.container, nil
	}
	if a.cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	c, err := container.NewContainer(a.cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize container: %w", err)
	}
	a.container = c
	return c, nil
}

// Open returns the container with the database connected.
func (a *App) Open(ctx context.Context) (*container.Container, error) {
	c, err := a.Container()
	if err != nil {
		return nil, err
	}
	if err := c.Open(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return c, nil
}

// Close releases the container, if one was built.
func (a *App) Close(ctx context.Context) {
	if a.container == nil {
		return
	}
	if err := a.container.Close(ctx); err != nil {
		a.logger.Warn("failed to close container", "err", err)
	}
}

// NewRootCommand creates the reportql root command.
func NewRootCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reportql",
		Short: "Build and run reports against relational databases",
		Long: `reportql compiles report requests (columns, filters, sorting and related
tables) into a single query against PostgreSQL, MySQL or SQLite and prints
the rows. Reports can be saved as templates and served over HTTP.`,
		Version:       fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.Load()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&app.configFile, "config", "", "config file (default searches ./.reportql.yaml, ~/.reportql.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.BoolVar(&app.noColor, "no-color", false, "disable colored output")
	flags.BoolVar(&app.logJSON, "log-json", false, "write logs as JSON")
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))

	cmd.AddCommand(NewQueryCommand(app))
	cmd.AddCommand(NewTemplateCommand(app))
	cmd.AddCommand(NewTablesCommand(app))
	cmd.AddCommand(NewServeCommand(app))
	cmd.AddCommand(NewInitCommand())
	cmd.AddCommand(NewDBCommand(app))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// skipLoad overrides the root pre-run for commands that need no config.
func skipLoad(cmd *cobra.Command, args []string) error {
	return nil
}
