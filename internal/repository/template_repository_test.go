package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/reportql/internal/adapters/storage"
	"github.com/satishbabariya/reportql/internal/core/report/domain"
)

func provoClasses() *domain.Template {
	return &domain.Template{
		Name:        "provo-classes",
		Description: "Classes in Provo by title",
		Request: domain.Request{
			Table:            "classes",
			Columns:          []string{"title", "community.name"},
			IncludeRelations: true,
			Filters: []domain.FilterSpec{
				{Column: "community.name", Operator: domain.OpEq, Value: "Provo"},
			},
			Sort:              domain.SortList{{Column: "title", Direction: domain.Asc}},
			RelatedSelections: domain.RelationSelection{"community": {"name"}},
		},
	}
}

func TestTemplateRepository_SaveLoad(t *testing.T) {
	ctx := context.Background()
	repo := NewTemplateRepository(storage.NewMemoryStorage())

	want := provoClasses()
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx, "provo-classes")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTemplateRepository_LoadFromYAML(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	repo := NewTemplateRepository(store)

	doc := `name: something-else
description: Volunteers by signup date
table: volunteers
columns: [name, signed_up_at]
filters:
  - {column: status, operator: in, value: "active, pending"}
sort: {column: signed_up_at, direction: desc}
`
	require.NoError(t, store.Write(ctx, "volunteers.yaml", []byte(doc)))

	tmpl, err := repo.Load(ctx, "volunteers")
	require.NoError(t, err)
	assert.Equal(t, "volunteers", tmpl.Name)
	assert.Equal(t, "volunteers", tmpl.Table)
	assert.Equal(t, []string{"name", "signed_up_at"}, tmpl.Columns)
	require.Len(t, tmpl.Filters, 1)
	assert.Equal(t, domain.OpIn, tmpl.Filters[0].Operator)
	assert.Equal(t, domain.SortList{{Column: "signed_up_at", Direction: domain.Desc}}, tmpl.Sort)
}

func TestTemplateRepository_List(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	repo := NewTemplateRepository(store)

	for _, name := range []string{"zeta", "alpha", "mid_1"} {
		tmpl := provoClasses()
		tmpl.Name = name
		require.NoError(t, repo.Save(ctx, tmpl))
	}
	require.NoError(t, store.Write(ctx, "notes.txt", []byte("ignored")))
	require.NoError(t, store.Write(ctx, "bad name.yaml", []byte("table: x")))

	names, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid_1", "zeta"}, names)
}

func TestTemplateRepository_ListEmpty(t *testing.T) {
	repo := NewTemplateRepository(storage.NewMemoryStorage())

	names, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestTemplateRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewTemplateRepository(storage.NewMemoryStorage())
	require.NoError(t, repo.Save(ctx, provoClasses()))

	require.NoError(t, repo.Delete(ctx, "provo-classes"))

	_, err := repo.Load(ctx, "provo-classes")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "provo-classes"), domain.ErrTemplateNotFound)
}

func TestTemplateRepository_InvalidNames(t *testing.T) {
	ctx := context.Background()
	repo := NewTemplateRepository(storage.NewMemoryStorage())

	for _, name := range []string{"", "../etc/passwd", "a b", "x.yaml"} {
		t.Run(name, func(t *testing.T) {
			tmpl := provoClasses()
			tmpl.Name = name
			assert.ErrorIs(t, repo.Save(ctx, tmpl), domain.ErrInvalidTemplateName)

			_, err := repo.Load(ctx, name)
			assert.ErrorIs(t, err, domain.ErrInvalidTemplateName)
			assert.ErrorIs(t, repo.Delete(ctx, name), domain.ErrInvalidTemplateName)
			assert.Empty(t, repo.Path(name))
		})
	}
}

func TestTemplateRepository_SaveRequiresTable(t *testing.T) {
	repo := NewTemplateRepository(storage.NewMemoryStorage())

	err := repo.Save(context.Background(), &domain.Template{Name: "empty"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestTemplateRepository_Path(t *testing.T) {
	dir := t.TempDir()
	repo := NewTemplateRepository(storage.NewFilesystemStorage(dir))

	assert.Equal(t, filepath.Join(dir, "provo-classes.yaml"), repo.Path("provo-classes"))
	assert.Empty(t, NewTemplateRepository(storage.NewMemoryStorage()).Path("provo-classes"))
}
