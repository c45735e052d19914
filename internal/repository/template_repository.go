// Package repository implements repository interfaces for data access.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/satishbabariya/reportql/internal/adapters/storage"
	"github.com/satishbabariya/reportql/internal/core/report/domain"
)

const templateExt = ".yaml"

// TemplateRepositoryImpl stores templates as YAML files.
type TemplateRepositoryImpl struct {
	storage storage.Storage
}

// NewTemplateRepository creates a template repository over store.
func NewTemplateRepository(store storage.Storage) *TemplateRepositoryImpl {
	return &TemplateRepositoryImpl{
		storage: store,
	}
}

// Save saves a template.
func (r *TemplateRepositoryImpl) Save(ctx context.Context, tmpl *domain.Template) error {
	if tmpl == nil {
		return fmt.Errorf("%w: template is nil", domain.ErrInvalidRequest)
	}
	if err := domain.ValidateTemplateName(tmpl.Name); err != nil {
		return err
	}
	if strings.TrimSpace(tmpl.Table) == "" {
		return fmt.Errorf("%w: template %q has no table", domain.ErrInvalidRequest, tmpl.Name)
	}

	data, err := yaml.Marshal(tmpl)
	if err != nil {
		return fmt.Errorf("failed to encode template %s: %w", tmpl.Name, err)
	}
	if err := r.storage.Write(ctx, fileName(tmpl.Name), data); err != nil {
		return fmt.Errorf("failed to write template %s: %w", tmpl.Name, err)
	}
	return nil
}

// Load loads a template.
func (r *TemplateRepositoryImpl) Load(ctx context.Context, name string) (*domain.Template, error) {
	if err := domain.ValidateTemplateName(name); err != nil {
		return nil, err
	}

	data, err := r.storage.Read(ctx, fileName(name))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}

	var tmpl domain.Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	// The file name wins over the name field.
	tmpl.Name = name
	return &tmpl, nil
}

// List lists template names.
func (r *TemplateRepositoryImpl) List(ctx context.Context) ([]string, error) {
	files, err := r.storage.List(ctx, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		name, ok := strings.CutSuffix(f, templateExt)
		if !ok || domain.ValidateTemplateName(name) != nil {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Delete deletes a template.
func (r *TemplateRepositoryImpl) Delete(ctx context.Context, name string) error {
	if err := domain.ValidateTemplateName(name); err != nil {
		return err
	}

	err := r.storage.Delete(ctx, fileName(name))
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("failed to delete template %s: %w", name, err)
	}
	return nil
}

// Path returns the local file for a template.
func (r *TemplateRepositoryImpl) Path(name string) string {
	if domain.ValidateTemplateName(name) != nil {
		return ""
	}
	return r.storage.LocalPath(fileName(name))
}

func fileName(name string) string {
	return name + templateExt
}

// Ensure TemplateRepositoryImpl implements TemplateRepository interface.
var _ TemplateRepository = (*TemplateRepositoryImpl)(nil)
