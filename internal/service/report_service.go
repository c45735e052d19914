// Package service implements the report service.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/satishbabariya/reportql/internal/adapters/telemetry"
	"github.com/satishbabariya/reportql/internal/core/report/compiler"
	"github.com/satishbabariya/reportql/internal/core/report/domain"
	"github.com/satishbabariya/reportql/internal/repository"
)

var (
	// ErrNoMetadata is returned when table metadata is requested without a
	// metadata provider.
	ErrNoMetadata = errors.New("reportql: no metadata provider configured")

	// ErrNoDatabase is returned when a report runs without a database.
	ErrNoDatabase = errors.New("reportql: no database configured")
)

// ReportService orchestrates report compilation, templates and telemetry.
type ReportService struct {
	compiler  *compiler.ReportCompiler
	templates repository.TemplateRepository
	metadata  domain.MetadataProvider
	telemetry telemetry.Telemetry
	logger    *slog.Logger
}

// NewReportService creates a new report service.
func NewReportService(
	comp *compiler.ReportCompiler,
	templates repository.TemplateRepository,
	metadata domain.MetadataProvider,
	tel telemetry.Telemetry,
	logger *slog.Logger,
) *ReportService {
	if tel == nil {
		tel = telemetry.NewNoopTelemetry()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ReportService{
		compiler:  comp,
		templates: templates,
		metadata:  metadata,
		telemetry: tel,
		logger:    logger,
	}
}

// Run executes a report. Failures are logged and yield an empty result.
func (s *ReportService) Run(ctx context.Context, req domain.Request) []domain.Row {
	rows, err := s.execute(ctx, "run", req)
	if err != nil {
		return []domain.Row{}
	}
	return rows
}

// Query executes a report and returns any failure.
func (s *ReportService) Query(ctx context.Context, req domain.Request) ([]domain.Row, error) {
	return s.execute(ctx, "query", req)
}

// RunTemplate executes a saved template with overrides applied. A missing
// template is an error even when strict is false.
func (s *ReportService) RunTemplate(ctx context.Context, name string, overrides domain.Overrides, strict bool) ([]domain.Row, error) {
	tmpl, err := s.LoadTemplate(ctx, name)
	if err != nil {
		return nil, err
	}

	rows, err := s.execute(ctx, "template", tmpl.Resolve(overrides))
	if err != nil {
		if strict {
			return nil, err
		}
		return []domain.Row{}, nil
	}
	return rows, nil
}

func (s *ReportService) execute(ctx context.Context, operation string, req domain.Request) ([]domain.Row, error) {
	if s.compiler == nil {
		return nil, ErrNoDatabase
	}

	runID := uuid.NewString()
	logger := s.logger.With("run_id", runID, "table", req.Table, "operation", operation)
	logger.Debug("running report", "columns", strings.Join(req.Columns, ","), "filters", len(req.Filters))

	start := time.Now()
	rows, err := s.compiler.Query(ctx, req)
	elapsed := time.Since(start)

	s.telemetry.RecordQuery(ctx, telemetry.QueryInfo{
		RunID:     runID,
		Table:     req.Table,
		Operation: operation,
		Duration:  elapsed,
		Success:   err == nil,
		Rows:      len(rows),
	})
	if err != nil {
		s.telemetry.RecordError(ctx, telemetry.ErrorInfo{
			RunID:     runID,
			Error:     err,
			Table:     req.Table,
			Operation: operation,
		})
		logger.Error("report failed", "duration", elapsed, "err", err)
		return nil, err
	}

	logger.Info("report completed", "duration", elapsed, "rows", len(rows))
	return rows, nil
}

// Relations returns the columns and foreign keys of table.
func (s *ReportService) Relations(ctx context.Context, table string) (*domain.TableMetadata, error) {
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("%w: table is required", domain.ErrInvalidRequest)
	}
	if s.metadata == nil {
		return nil, ErrNoMetadata
	}

	meta, err := s.metadata.TableMetadata(ctx, table)
	if err != nil {
		return nil, &domain.ReportError{Code: "metadata", Table: table, Message: "failed to read table metadata", Cause: err}
	}
	return meta, nil
}

// ListTemplates returns the saved template names.
func (s *ReportService) ListTemplates(ctx context.Context) ([]string, error) {
	return s.templates.List(ctx)
}

// LoadTemplate loads a saved template.
func (s *ReportService) LoadTemplate(ctx context.Context, name string) (*domain.Template, error) {
	return s.templates.Load(ctx, name)
}

// SaveTemplate validates and saves a template. Operators are checked up
// front so a broken template fails on save rather than on every run.
func (s *ReportService) SaveTemplate(ctx context.Context, tmpl *domain.Template) error {
	if tmpl != nil {
		if _, err := domain.Predicates(tmpl.Filters); err != nil {
			return err
		}
	}
	if err := s.templates.Save(ctx, tmpl); err != nil {
		return err
	}
	s.logger.Info("template saved", "template", tmpl.Name, "table", tmpl.Table)
	return nil
}

// DeleteTemplate deletes a saved template.
func (s *ReportService) DeleteTemplate(ctx context.Context, name string) error {
	if err := s.templates.Delete(ctx, name); err != nil {
		return err
	}
	s.logger.Info("template deleted", "template", name)
	return nil
}

// TemplatePath returns the local file backing a template, if any.
func (s *ReportService) TemplatePath(name string) string {
	return s.templates.Path(name)
}
