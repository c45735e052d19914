package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/reportql/internal/config"
	"github.com/satishbabariya/reportql/internal/core/report/domain"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(viper.Reset)

	app := NewApp()
	defer app.Close(context.Background())

	root := NewRootCommand(app)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--no-color"}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// writeConfig writes a config file that keeps templates under dir.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "reportql.yaml")
	content := "templates:\n  dir: " + filepath.Join(dir, "reports") + "\ntelemetry:\n  type: noop\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "reportql version dev")
	assert.Contains(t, out, "Go Version")
}

func TestTemplateCommands(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	file := filepath.Join(dir, "provo-classes.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`description: Classes in Provo
table: classes
columns: [title, community.name]
filters:
  - {column: community.name, operator: eq, value: Provo}
sort: {column: title}
`), 0o644))

	_, err := executeCommand(t, "--config", cfgPath, "template", "save", file)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "reports", "provo-classes.yaml"))

	out, err := executeCommand(t, "--config", cfgPath, "template", "list", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `["provo-classes"]`, out)

	out, err = executeCommand(t, "--config", cfgPath, "template", "show", "provo-classes")
	require.NoError(t, err)
	assert.Contains(t, out, "name: provo-classes")
	assert.Contains(t, out, "table: classes")

	_, err = executeCommand(t, "--config", cfgPath, "template", "delete", "provo-classes")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "reports", "provo-classes.yaml"))

	_, err = executeCommand(t, "--config", cfgPath, "template", "show", "provo-classes")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestDebugFlag_ReachesConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	app := NewApp()
	t.Cleanup(viper.Reset)
	t.Cleanup(func() { app.Close(context.Background()) })
	root := NewRootCommand(app)
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--no-color", "--config", cfgPath, "--debug", "template", "list"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	require.NotNil(t, app.Config())
	assert.True(t, app.Config().Debug)
	assert.True(t, app.logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestTemplateSave_RejectsUnknownOperator(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	file := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(file, []byte("table: classes\nfilters:\n  - {column: title, operator: like, value: x}\n"), 0o644))

	_, err := executeCommand(t, "--config", cfgPath, "template", "save", file)
	assert.ErrorIs(t, err, domain.ErrUnknownOperator)
}

func TestQueryCommand_NeedsDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	_, err := executeCommand(t, "--config", cfgPath, "query", "classes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database configured")

	_, err = executeCommand(t, "--config", cfgPath, "query", "classes", "--output", "csv")
	assert.ErrorContains(t, err, `unknown output format "csv"`)

	_, err = executeCommand(t, "--config", cfgPath, "query", "classes", "--filter", "title like x")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestReadTemplateFile(t *testing.T) {
	orig := config.AppFs
	config.AppFs = afero.NewMemMapFs()
	t.Cleanup(func() { config.AppFs = orig })

	require.NoError(t, afero.WriteFile(config.AppFs, "reports/by-title.yml", []byte("table: classes\nsort: [{column: title, direction: desc}]\n"), 0o644))

	tmpl, err := readTemplateFile("reports/by-title.yml")
	require.NoError(t, err)
	assert.Equal(t, "by-title", tmpl.Name)
	assert.Equal(t, "classes", tmpl.Table)
	assert.Equal(t, domain.SortList{{Column: "title", Direction: domain.Desc}}, tmpl.Sort)

	_, err = readTemplateFile("reports/missing.yml")
	assert.Error(t, err)
}

func TestParseOverrides(t *testing.T) {
	o, err := parseOverrides([]string{"age between 18 and 30"}, []string{"title:desc"})
	require.NoError(t, err)
	assert.Equal(t, []domain.FilterSpec{{Column: "age", Operator: domain.OpBetween, Value: "18", ValueTo: "30"}}, o.Filters)
	assert.Equal(t, domain.SortList{{Column: "title", Direction: domain.Desc}}, o.Sort)

	o, err = parseOverrides(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, o.Filters)
	assert.Nil(t, o.Sort)

	_, err = parseOverrides([]string{"age"}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestInitAnswers_Config(t *testing.T) {
	cfg, err := initAnswers{URL: "mysql://root@localhost/app", TemplatesDir: "./reports"}.config()
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Database.Provider)
	assert.Equal(t, 100, cfg.Report.MaxRows)
	assert.Equal(t, "metrics", cfg.Telemetry.Type)

	_, err = initAnswers{Provider: "postgresql"}.config()
	assert.Error(t, err)

	_, err = initAnswers{Provider: "oracle", URL: "oracle://x"}.config()
	assert.Error(t, err)
}

func TestInitCommand_NoPrompts(t *testing.T) {
	orig := config.AppFs
	config.AppFs = afero.NewMemMapFs()
	t.Cleanup(func() { config.AppFs = orig })

	_, err := executeCommand(t, "init", "--yes", "--provider", "sqlite", "--url", "file:app.db")
	require.NoError(t, err)

	data, err := afero.ReadFile(config.AppFs, ".reportql.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "provider: sqlite")
	assert.Contains(t, string(data), "url: file:app.db")

	_, err = executeCommand(t, "init", "--yes", "--url", "file:app.db")
	assert.ErrorContains(t, err, "already exists")
}
