package ui

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/reportql/internal/core/report/domain"
	"github.com/satishbabariya/reportql/internal/service"
)

func TestRowTable(t *testing.T) {
	rows := []domain.Row{
		{"title": "Pottery", "id": int64(1), "community": domain.Row{"name": "Provo"}},
		{"title": "Weaving", "id": int64(2), "community": nil},
	}

	headers, cells := RowTable(rows)
	assert.Equal(t, []string{"community", "id", "title", "community.name"}, headers)
	assert.Equal(t, [][]string{
		{"", "1", "Pottery", "Provo"},
		{"NULL", "2", "Weaving", ""},
	}, cells)
}

func TestRowTable_Empty(t *testing.T) {
	headers, cells := RowTable(nil)
	assert.Empty(t, headers)
	assert.Empty(t, cells)
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		in   any
		want string
	}{
		{nil, "NULL"},
		{"Provo", "Provo"},
		{[]byte("raw"), "raw"},
		{ts, "2024-03-01T09:30:00Z"},
		{int64(42), "42"},
		{9.5, "9.5"},
		{true, "true"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in))
	}
}

func TestPrintRows_JSON(t *testing.T) {
	var buf bytes.Buffer
	rows := []domain.Row{{"title": "Pottery", "community": domain.Row{"name": "Provo"}}}
	require.NoError(t, PrintRows(&buf, rows, OutputJSON))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "Provo", decoded[0]["community"].(map[string]any)["name"])
}

func TestPrintRows_Table(t *testing.T) {
	DisableColor()
	var buf bytes.Buffer
	require.NoError(t, PrintRows(&buf, []domain.Row{{"title": "Pottery"}}, OutputTable))
	assert.Contains(t, buf.String(), "title")
	assert.Contains(t, buf.String(), "Pottery")
	assert.Contains(t, buf.String(), "(1 rows)")

	buf.Reset()
	require.NoError(t, PrintRows(&buf, nil, OutputTable))
	assert.Contains(t, buf.String(), "(no rows)")
}

func TestValidOutput(t *testing.T) {
	assert.True(t, ValidOutput("table"))
	assert.True(t, ValidOutput("json"))
	assert.False(t, ValidOutput("csv"))
}

func TestExplanationMarkdown(t *testing.T) {
	exp := &service.Explanation{
		Table:      "classes",
		Projection: "title,community!inner(name)",
		Relations:  []service.ExplainedRelation{{Name: "community", Inner: true, Columns: []string{"name"}}},
		Predicates: []service.ExplainedPredicate{{Column: "community.name", Operator: domain.OpEq, Values: []any{"Provo"}}},
		Ordering:   []service.ExplainedOrdering{{Column: "title", Direction: "asc"}},
		Limit:      100,
		SQL:        `SELECT "classes"."title" FROM "classes" LIMIT $1`,
		Args:       []any{100},
	}

	md := ExplanationMarkdown(exp)
	assert.Contains(t, md, "# Report on `classes`")
	assert.Contains(t, md, "**Projection:** `title,community!inner(name)`")
	assert.Contains(t, md, "| community | inner | name |")
	assert.Contains(t, md, "| community.name | eq | Provo |")
	assert.Contains(t, md, "- `title` asc")
	assert.Contains(t, md, "```sql\nSELECT \"classes\".\"title\" FROM \"classes\" LIMIT $1\n```")
	assert.Contains(t, md, "Arguments: 1: 100")
}

func TestExplanationMarkdown_Minimal(t *testing.T) {
	md := ExplanationMarkdown(&service.Explanation{Table: "classes", Projection: "*", Limit: 10})
	assert.NotContains(t, md, "## Relations")
	assert.NotContains(t, md, "## Filters")
	assert.NotContains(t, md, "## SQL")
}

func TestMetadataRows(t *testing.T) {
	meta := &domain.TableMetadata{
		Name: "classes",
		Columns: []domain.ColumnMetadata{
			{Name: "id", Type: "integer"},
			{Name: "community_id", Type: "integer", Nullable: true},
		},
		PrimaryKey: []string{"id"},
		ForeignKeys: []domain.ForeignKey{
			{Name: "classes_community_fk", ColumnName: "community_id", ReferencedTable: "community", ReferencedColumn: "id"},
		},
	}

	headers, rows := MetadataRows(meta)
	assert.Equal(t, []string{"Column", "Type", "Nullable", "Key", "References"}, headers)
	assert.Equal(t, [][]string{
		{"id", "integer", "no", "PK", ""},
		{"community_id", "integer", "yes", "", "community.id"},
	}, rows)
}
