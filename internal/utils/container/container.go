// Package container provides dependency injection.
package container

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/satishbabariya/reportql/internal/adapters/database"
	"github.com/satishbabariya/reportql/internal/adapters/database/mysql"
	"github.com/satishbabariya/reportql/internal/adapters/database/postgres"
	"github.com/satishbabariya/reportql/internal/adapters/database/sqlite"
	"github.com/satishbabariya/reportql/internal/adapters/sqlstore"
	"github.com/satishbabariya/reportql/internal/adapters/storage"
	"github.com/satishbabariya/reportql/internal/adapters/telemetry"
	"github.com/satishbabariya/reportql/internal/config"
	"github.com/satishbabariya/reportql/internal/core/introspection"
	"github.com/satishbabariya/reportql/internal/core/report/compiler"
	report "github.com/satishbabariya/reportql/internal/core/report/domain"
	"github.com/satishbabariya/reportql/internal/repository"
	"github.com/satishbabariya/reportql/internal/service"
)

// Container holds all application dependencies.
type Container struct {
	// Configuration
	config *config.Config
	logger *slog.Logger

	// Adapters
	dbAdapter database.Adapter
	metadata  *introspection.Provider
	storage   storage.Storage
	telemetry telemetry.Telemetry

	// Repositories
	templateRepo repository.TemplateRepository

	// Services
	reportService *service.ReportService

	connectOnce sync.Once
	connectErr  error
}

// NewContainer creates a new dependency injection container. The database
// adapter is created but not connected; call Open before running reports.
// An empty database URL leaves the container without a database, which is
// enough for template management.
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	var adapter database.Adapter
	if cfg.Database.URL != "" {
		var err error
		adapter, err = NewDatabaseAdapter(cfg.Database.AdapterConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create database adapter: %w", err)
		}
	}
	return NewContainerWithAdapter(cfg, adapter, logger)
}

// NewContainerWithAdapter wires the container around an existing adapter,
// which may be nil.
func NewContainerWithAdapter(cfg *config.Config, adapter database.Adapter, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Container{
		config:    cfg,
		logger:    logger,
		dbAdapter: adapter,
	}

	var err error
	c.storage, err = storage.NewStorage(&storage.Config{
		Type:     cfg.Templates.Storage,
		BasePath: cfg.Templates.Dir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create template storage: %w", err)
	}
	c.templateRepo = repository.NewTemplateRepository(c.storage)

	c.telemetry, err = telemetry.NewTelemetry(&telemetry.Config{Type: cfg.Telemetry.Type})
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry: %w", err)
	}

	var comp *compiler.ReportCompiler
	if adapter != nil {
		c.metadata, err = introspection.NewProvider(adapter)
		if err != nil {
			return nil, fmt.Errorf("failed to create metadata provider: %w", err)
		}
		client := sqlstore.NewClient(adapter, c.metadata, logger)
		opts := cfg.Report.CompilerOptions()
		opts.Logger = logger
		comp = compiler.NewReportCompiler(client, c.metadata, opts)
	}

	// A nil *Provider must not become a non-nil interface.
	var metadata report.MetadataProvider
	if c.metadata != nil {
		metadata = c.metadata
	}
	c.reportService = service.NewReportService(comp, c.templateRepo, metadata, c.telemetry, logger)

	return c, nil
}

// NewDatabaseAdapter creates the adapter for config.Provider.
func NewDatabaseAdapter(cfg database.Config) (database.Adapter, error) {
	dialect, err := database.ParseDialect(cfg.Provider)
	if err != nil {
		return nil, err
	}

	switch dialect {
	case database.PostgreSQL:
		adapter, err := postgres.NewPostgresAdapter(cfg)
		if err != nil {
			return nil, err
		}
		return adapter, nil
	case database.MySQL:
		adapter, err := mysql.NewMySQLAdapter(cfg)
		if err != nil {
			return nil, err
		}
		return adapter, nil
	case database.SQLite:
		adapter, err := sqlite.NewSQLiteAdapter(cfg)
		if err != nil {
			return nil, err
		}
		return adapter, nil
	}
	return nil, fmt.Errorf("unsupported database provider: %s", cfg.Provider)
}

// Open connects the database adapter once.
func (c *Container) Open(ctx context.Context) error {
	if c.dbAdapter == nil {
		return service.ErrNoDatabase
	}
	c.connectOnce.Do(func() {
		start := time.Now()
		c.connectErr = c.dbAdapter.Connect(ctx)
		c.telemetry.RecordConnection(ctx, telemetry.ConnectionInfo{
			Event:    "connect",
			Duration: time.Since(start),
			Success:  c.connectErr == nil,
		})
		if c.connectErr != nil {
			c.logger.Error("database connection failed", "dialect", c.dbAdapter.GetDialect(), "err", c.connectErr)
			return
		}
		c.logger.Debug("database connected", "dialect", c.dbAdapter.GetDialect(), "duration", time.Since(start))
	})
	return c.connectErr
}

// Config returns the configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the application logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// DatabaseAdapter returns the database adapter, or nil without a database.
func (c *Container) DatabaseAdapter() database.Adapter {
	return c.dbAdapter
}

// Metadata returns the table metadata provider, or nil without a database.
func (c *Container) Metadata() *introspection.Provider {
	return c.metadata
}

// Telemetry returns the telemetry adapter.
func (c *Container) Telemetry() telemetry.Telemetry {
	return c.telemetry
}

// TemplateRepository returns the template repository.
func (c *Container) TemplateRepository() repository.TemplateRepository {
	return c.templateRepo
}

// ReportService returns the report service.
func (c *Container) ReportService() *service.ReportService {
	return c.reportService
}

// Close closes the database connection and flushes telemetry.
func (c *Container) Close(ctx context.Context) error {
	var dbErr error
	if c.dbAdapter != nil {
		dbErr = c.dbAdapter.Disconnect(ctx)
		c.telemetry.RecordConnection(ctx, telemetry.ConnectionInfo{Event: "disconnect", Success: dbErr == nil})
	}
	if err := c.telemetry.Flush(ctx); err != nil {
		c.logger.Warn("telemetry flush failed", "err", err)
	}
	if err := c.telemetry.Close(ctx); err != nil {
		c.logger.Warn("telemetry close failed", "err", err)
	}
	if dbErr != nil {
		return fmt.Errorf("failed to disconnect database: %w", dbErr)
	}
	return nil
}
