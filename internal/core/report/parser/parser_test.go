package parser

import (
	"testing"

	"github.com/satishbabariya/reportql/internal/core/report/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		projection string
		want       *Select
	}{
		{
			name:       "empty",
			projection: "  ",
			want:       &Select{},
		},
		{
			name:       "wildcard",
			projection: "*",
			want:       &Select{Columns: []string{"*"}},
		},
		{
			name:       "columns and embeds",
			projection: "title,community!inner(name),teachers(id)",
			want: &Select{
				Columns: []string{"title"},
				Embeds: []Embed{
					{Relation: "community", Inner: true, Columns: []string{"name"}},
					{Relation: "teachers", Columns: []string{"id"}},
				},
			},
		},
		{
			name:       "whitespace and wildcard embed",
			projection: " id , rooms ( * ) , name ",
			want: &Select{
				Columns: []string{"id", "name"},
				Embeds:  []Embed{{Relation: "rooms", Columns: []string{"*"}}},
			},
		},
		{
			name:       "left hint",
			projection: "community!left(name,city)",
			want: &Select{
				Embeds: []Embed{{Relation: "community", Columns: []string{"name", "city"}}},
			},
		},
		{
			name:       "names with dashes and leading digits",
			projection: "first-name,2fa,user-profile!inner(last-name,3d_model)",
			want: &Select{
				Columns: []string{"first-name", "2fa"},
				Embeds: []Embed{
					{Relation: "user-profile", Inner: true, Columns: []string{"last-name", "3d_model"}},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.projection)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, projection := range []string{
		"title,",
		"community(name",
		"community!outer(name)",
		"title!inner",
		"*(name)",
		"a b",
		"community(name)(city)",
	} {
		t.Run(projection, func(t *testing.T) {
			_, err := Parse(projection)
			assert.Error(t, err)
		})
	}
}

func TestSelect_RoundTrip(t *testing.T) {
	in := "title,starts_on,community!inner(name,city),teachers(*)"
	sel, err := Parse(in)
	require.NoError(t, err)
	assert.Equal(t, in, sel.String())

	again, err := Parse(sel.String())
	require.NoError(t, err)
	assert.Equal(t, sel, again)

	e, ok := sel.Embed("teachers")
	require.True(t, ok)
	assert.True(t, e.HasWildcard())
	assert.False(t, sel.IsEmpty())
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		expr string
		want domain.FilterSpec
	}{
		{
			expr: "status=open",
			want: domain.FilterSpec{Column: "status", Operator: domain.OpEq, Value: "open"},
		},
		{
			expr: "status = ",
			want: domain.FilterSpec{Column: "status", Operator: domain.OpEq},
		},
		{
			expr: "community.name eq Provo",
			want: domain.FilterSpec{Column: "community.name", Operator: domain.OpEq, Value: "Provo"},
		},
		{
			expr: `title contains "intro to"`,
			want: domain.FilterSpec{Column: "title", Operator: domain.OpContains, Value: "intro to"},
		},
		{
			expr: "age between 18 and 30",
			want: domain.FilterSpec{Column: "age", Operator: domain.OpBetween, Value: "18", ValueTo: "30"},
		},
		{
			expr: "age between 18",
			want: domain.FilterSpec{Column: "age", Operator: domain.OpBetween, Value: "18"},
		},
		{
			expr: `status in "a, b ,,c"`,
			want: domain.FilterSpec{Column: "status", Operator: domain.OpIn, Value: "a, b ,,c"},
		},
		{
			expr: "title startswith 'Yo'",
			want: domain.FilterSpec{Column: "title", Operator: domain.OpStartsWith, Value: "Yo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseFilter(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFilter_Errors(t *testing.T) {
	_, err := ParseFilter("name like x")
	assert.ErrorIs(t, err, domain.ErrUnknownOperator)

	_, err = ParseFilter("age gt 1 and 2")
	assert.Error(t, err)

	_, err = ParseFilter("")
	assert.Error(t, err)

	_, err = ParseFilter("age")
	assert.Error(t, err)
}

func TestParseSort(t *testing.T) {
	s, err := ParseSort("title")
	require.NoError(t, err)
	assert.Equal(t, domain.SortSpec{Column: "title", Direction: domain.Asc}, s)

	s, err = ParseSort("community.name:DESC")
	require.NoError(t, err)
	assert.Equal(t, domain.SortSpec{Column: "community.name", Direction: domain.Desc}, s)

	_, err = ParseSort("title:up")
	assert.Error(t, err)

	_, err = ParseSort(":asc")
	assert.Error(t, err)

	list, err := ParseSorts([]string{"a", "b:desc"})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestParseRelation(t *testing.T) {
	name, cols, err := ParseRelation("community=name, city")
	require.NoError(t, err)
	assert.Equal(t, "community", name)
	assert.Equal(t, []string{"name", "city"}, cols)

	name, cols, err = ParseRelation("teachers")
	require.NoError(t, err)
	assert.Equal(t, "teachers", name)
	assert.Nil(t, cols)

	_, _, err = ParseRelation("=a")
	assert.Error(t, err)
}

func TestArgs_Request(t *testing.T) {
	req, err := Args{
		Table:            "classes",
		Columns:          []string{"title, community.name", "teachers.name"},
		IncludeRelations: true,
		Filters:          []string{"community.name eq Provo", "age between 18 and 30"},
		Sorts:            []string{"title:desc"},
		Relations:        []string{"community=name,city", "teachers"},
	}.Request()
	require.NoError(t, err)

	assert.Equal(t, domain.Request{
		Table:            "classes",
		Columns:          []string{"title", "community.name", "teachers.name"},
		IncludeRelations: true,
		Filters: []domain.FilterSpec{
			{Column: "community.name", Operator: domain.OpEq, Value: "Provo"},
			{Column: "age", Operator: domain.OpBetween, Value: "18", ValueTo: "30"},
		},
		Sort: domain.SortList{{Column: "title", Direction: domain.Desc}},
		RelatedSelections: domain.RelationSelection{
			"community": {"name", "city"},
			"teachers":  nil,
		},
	}, req)
}

func TestArgs_RequestErrors(t *testing.T) {
	tests := []struct {
		name string
		args Args
	}{
		{name: "missing table", args: Args{}},
		{name: "bad filter", args: Args{Table: "classes", Filters: []string{"title like x"}}},
		{name: "bad sort", args: Args{Table: "classes", Sorts: []string{"title:sideways"}}},
		{name: "bad relation", args: Args{Table: "classes", Relations: []string{"=name"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.args.Request()
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		})
	}
}
