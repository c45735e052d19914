// Package repository defines repository interfaces for data access.
package repository

import (
	"context"

	"github.com/satishbabariya/reportql/internal/core/report/domain"
)

// TemplateRepository defines the interface for saved report templates.
type TemplateRepository interface {
	// Save saves a template under its name, replacing any existing one.
	Save(ctx context.Context, tmpl *domain.Template) error

	// Load loads a template by name.
	Load(ctx context.Context, name string) (*domain.Template, error)

	// List returns the names of all saved templates, sorted.
	List(ctx context.Context) ([]string, error)

	// Delete deletes a template by name.
	Delete(ctx context.Context, name string) error

	// Path returns the local file backing a template, or "" when the
	// templates are not stored on disk.
	Path(name string) string
}
