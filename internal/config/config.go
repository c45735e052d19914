// Package config provides configuration management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/satishbabariya/reportql/internal/adapters/database"
	"github.com/satishbabariya/reportql/internal/core/report/compiler"
)

// AppFs is the filesystem used for config and .env lookups.
var AppFs = afero.NewOsFs()

const (
	// FileName is the config file name without extension.
	FileName = ".reportql"

	// EnvPrefix prefixes every environment override, e.g.
	// REPORTQL_DATABASE_URL.
	EnvPrefix = "REPORTQL"
)

// Config represents application configuration.
type Config struct {
	Database  DatabaseConfig
	Report    ReportConfig
	Templates TemplatesConfig
	Server    ServerConfig
	Telemetry TelemetryConfig
	Debug     bool
}

// DatabaseConfig represents database configuration.
type DatabaseConfig struct {
	Provider       string
	URL            string
	MaxConnections int
	MaxIdleTime    int
	ConnectTimeout int
}

// ReportConfig controls report compilation.
type ReportConfig struct {
	MaxRows          int
	EmptyProjection  string
	IdentifierColumn string
}

// TemplatesConfig locates saved report templates.
type TemplatesConfig struct {
	Dir     string
	Storage string
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host string
	Port int
	// ShutdownTimeout is in seconds.
	ShutdownTimeout int
}

// TelemetryConfig selects the telemetry adapter.
type TelemetryConfig struct {
	Type string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_time", 300)
	v.SetDefault("database.connect_timeout", 10)
	v.SetDefault("report.max_rows", compiler.DefaultMaxRows)
	v.SetDefault("report.empty_projection", string(compiler.ProjectAll))
	v.SetDefault("report.identifier_column", "id")
	v.SetDefault("templates.dir", "./reports")
	v.SetDefault("templates.storage", "filesystem")
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10)
	v.SetDefault("telemetry.type", "metrics")
	v.SetDefault("debug", false)
}

// LoadConfig loads configuration into the global viper instance, which the
// CLI binds its flags to.
func LoadConfig(file string) (*Config, error) {
	return Load(viper.GetViper(), file)
}

// Load reads configuration from file (or the default search paths when file
// is empty), .env files and REPORTQL_* environment variables.
func Load(v *viper.Viper, file string) (*Config, error) {
	v.SetFs(AppFs)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
			v.AddConfigPath(filepath.Join(home, ".config", "reportql"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	loadDotEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Provider:       v.GetString("database.provider"),
			URL:            v.GetString("database.url"),
			MaxConnections: v.GetInt("database.max_connections"),
			MaxIdleTime:    v.GetInt("database.max_idle_time"),
			ConnectTimeout: v.GetInt("database.connect_timeout"),
		},
		Report: ReportConfig{
			MaxRows:          v.GetInt("report.max_rows"),
			EmptyProjection:  v.GetString("report.empty_projection"),
			IdentifierColumn: v.GetString("report.identifier_column"),
		},
		Templates: TemplatesConfig{
			Dir:     v.GetString("templates.dir"),
			Storage: v.GetString("templates.storage"),
		},
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Port:            v.GetInt("server.port"),
			ShutdownTimeout: v.GetInt("server.shutdown_timeout"),
		},
		Telemetry: TelemetryConfig{
			Type: v.GetString("telemetry.type"),
		},
		Debug: v.GetBool("debug"),
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}
	if cfg.Database.Provider == "" {
		cfg.Database.Provider = InferProvider(cfg.Database.URL)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads .env and then .env.local, which wins. Missing or
// unreadable files are ignored.
func loadDotEnv() {
	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}
}

// Validate checks values that would otherwise fail later.
func (c *Config) Validate() error {
	if c.Report.MaxRows <= 0 {
		return fmt.Errorf("report.max_rows must be positive, got %d", c.Report.MaxRows)
	}
	if _, err := compiler.ParseEmptyProjection(c.Report.EmptyProjection); err != nil {
		return fmt.Errorf("report.empty_projection: %w", err)
	}
	if strings.TrimSpace(c.Report.IdentifierColumn) == "" {
		return errors.New("report.identifier_column must not be empty")
	}
	if c.Database.Provider != "" {
		if _, err := database.ParseDialect(c.Database.Provider); err != nil {
			return fmt.Errorf("database.provider: %w", err)
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// InferProvider guesses the provider from a connection URL scheme. It
// returns "" when the scheme is not recognized.
func InferProvider(url string) string {
	scheme, _, ok := strings.Cut(url, "://")
	if !ok {
		if strings.HasPrefix(url, "file:") || strings.HasSuffix(url, ".db") || strings.HasSuffix(url, ".sqlite") {
			return "sqlite"
		}
		return ""
	}
	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return "postgresql"
	case "mysql":
		return "mysql"
	case "sqlite", "sqlite3", "file":
		return "sqlite"
	}
	return ""
}

// AdapterConfig converts the database section for the adapter factory.
func (d DatabaseConfig) AdapterConfig() database.Config {
	return database.Config{
		Provider:       d.Provider,
		URL:            d.URL,
		MaxConnections: d.MaxConnections,
		MaxIdleTime:    d.MaxIdleTime,
		ConnectTimeout: d.ConnectTimeout,
	}
}

// CompilerOptions converts the report section for the compiler.
func (r ReportConfig) CompilerOptions() compiler.Options {
	projection, _ := compiler.ParseEmptyProjection(r.EmptyProjection)
	return compiler.Options{
		MaxRows:          r.MaxRows,
		EmptyProjection:  projection,
		IdentifierColumn: r.IdentifierColumn,
	}
}

// Addr returns the listen address for the HTTP API.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SaveConfig writes the persistent settings of cfg to path.
func SaveConfig(v *viper.Viper, cfg *Config, path string) error {
	v.SetFs(AppFs)
	v.Set("database.provider", cfg.Database.Provider)
	v.Set("database.url", cfg.Database.URL)
	v.Set("report.max_rows", cfg.Report.MaxRows)
	v.Set("report.empty_projection", cfg.Report.EmptyProjection)
	v.Set("report.identifier_column", cfg.Report.IdentifierColumn)
	v.Set("templates.dir", cfg.Templates.Dir)
	v.Set("server.port", cfg.Server.Port)
	v.Set("telemetry.type", cfg.Telemetry.Type)

	if dir := filepath.Dir(path); dir != "." {
		if err := AppFs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// DefaultPath returns the config file init writes: .reportql.yaml in the
// working directory, or under ~/.config/reportql when global is set.
func DefaultPath(global bool) (string, error) {
	if !global {
		return FileName + ".yaml", nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "reportql", FileName+".yaml"), nil
}
