package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/satishbabariya/reportql/internal/config"
	"github.com/satishbabariya/reportql/internal/core/report/domain"
	"github.com/satishbabariya/reportql/internal/core/report/parser"
	"github.com/satishbabariya/reportql/internal/ui"
	"github.com/satishbabariya/reportql/internal/watch"
)

// NewTemplateCommand creates the parent template command.
func NewTemplateCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"templates"},
		Short:   "Manage saved report templates",
		Long:    "Save, inspect and run named reports stored as YAML files in the templates directory.",
	}

	cmd.AddCommand(newTemplateListCommand(app))
	cmd.AddCommand(newTemplateShowCommand(app))
	cmd.AddCommand(newTemplateSaveCommand(app))
	cmd.AddCommand(newTemplateDeleteCommand(app))
	cmd.AddCommand(newTemplateRunCommand(app))
	return cmd
}

func newTemplateListCommand(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Container()
			if err != nil {
				return err
			}
			names, err := c.ReportService().ListTemplates(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output == ui.OutputJSON {
				return ui.WriteJSON(out, names)
			}
			if len(names) == 0 {
				ui.PrintInfo("No templates in %s", app.Config().Templates.Dir)
				return nil
			}
			ui.PrintList(out, names)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", ui.OutputTable, "output format: table or json")
	return cmd
}

func newTemplateShowCommand(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a saved template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Container()
			if err != nil {
				return err
			}
			tmpl, err := c.ReportService().LoadTemplate(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output == ui.OutputJSON {
				return ui.WriteJSON(out, tmpl)
			}
			data, err := yaml.Marshal(tmpl)
			if err != nil {
				return fmt.Errorf("failed to encode template: %w", err)
			}
			_, err = out.Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml or json")
	return cmd
}

func newTemplateSaveCommand(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "save <file>",
		Short: "Save a template from a YAML file",
		Long: `Save a template from a YAML file. The template name comes from --name,
then the file's name field, then the file name without its extension.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := readTemplateFile(args[0])
			if err != nil {
				return err
			}
			if name != "" {
				tmpl.Name = name
			}

			c, err := app.Container()
			if err != nil {
				return err
			}
			svc := c.ReportService()
			if err := svc.SaveTemplate(cmd.Context(), tmpl); err != nil {
				return err
			}

			if path := svc.TemplatePath(tmpl.Name); path != "" {
				ui.PrintSuccess("Saved template %s to %s", tmpl.Name, path)
			} else {
				ui.PrintSuccess("Saved template %s", tmpl.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "template name (overrides the file)")
	return cmd
}

// readTemplateFile decodes a template YAML file.
func readTemplateFile(path string) (*domain.Template, error) {
	data, err := afero.ReadFile(config.AppFs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}

	var tmpl domain.Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("failed to parse template file %s: %w", path, err)
	}
	if tmpl.Name == "" {
		tmpl.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &tmpl, nil
}

func newTemplateDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved template",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Container()
			if err != nil {
				return err
			}
			if err := c.ReportService().DeleteTemplate(cmd.Context(), args[0]); err != nil {
				return err
			}
			ui.PrintSuccess("Deleted template %s", args[0])
			return nil
		},
	}
}

func newTemplateRunCommand(app *App) *cobra.Command {
	var (
		filters  []string
		sorts    []string
		output   string
		strict   bool
		watching bool
	)

	cmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Run a saved template",
		Long: `Run a saved template. --filter adds filters to the template's own and
--sort replaces its ordering. With --watch the report re-runs whenever the
template file changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !ui.ValidOutput(output) {
				return fmt.Errorf("unknown output format %q", output)
			}
			name := args[0]

			overrides, err := parseOverrides(filters, sorts)
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

			runOnce := func(ctx context.Context) error {
				rows, err := svc.RunTemplate(ctx, name, overrides, strict)
				if err != nil {
					return err
				}
				return ui.PrintRows(out, rows, output)
			}

			if !watching {
				return runOnce(ctx)
			}

			path := svc.TemplatePath(name)
			if path == "" {
				return fmt.Errorf("template storage %q has no local files to watch", app.Config().Templates.Storage)
			}
			w, err := watch.NewWatcher(path, func(ctx context.Context) error {
				ui.PrintSection(fmt.Sprintf("%s (%s)", name, path))
				// Keep watching so a broken template can be fixed in place.
				if err := runOnce(ctx); err != nil {
					ui.PrintError("%v", err)
				}
				return nil
			}, watch.WithLogger(c.Logger()))
			if err != nil {
				return err
			}
			ui.PrintInfo("Watching %s, press Ctrl+C to stop", path)
			return w.Run(ctx)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&filters, "filter", "f", nil, "additional filter expression (repeatable)")
	flags.StringArrayVarP(&sorts, "sort", "s", nil, "replace the template's sort, column[:asc|desc] (repeatable)")
	flags.StringVarP(&output, "output", "o", ui.OutputTable, "output format: table or json")
	flags.BoolVar(&strict, "strict", false, "fail on errors instead of printing no rows")
	flags.BoolVarP(&watching, "watch", "w", false, "re-run when the template file changes")

	return cmd
}

func parseOverrides(filters, sorts []string) (domain.Overrides, error) {
	var o domain.Overrides
	if len(filters) > 0 {
		f, err := parser.ParseFilters(filters)
		if err != nil {
			return o, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
		}
		o.Filters = f
	}
	if len(sorts) > 0 {
		s, err := parser.ParseSorts(sorts)
		if err != nil {
			return o, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
		}
		o.Sort = s
	}
	return o, nil
}
