// Package compiler turns declarative report requests into store queries.
package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/satishbabariya/reportql/internal/core/report/domain"
	"github.com/satishbabariya/reportql/internal/core/report/parser"
)

// DefaultMaxRows caps every report query.
const DefaultMaxRows = 100

// EmptyProjection decides what an empty column list projects.
type EmptyProjection string

const (
	// ProjectAll selects every base-table column.
	ProjectAll EmptyProjection = "all"
	// ProjectIdentifier selects only the identifier column.
	ProjectIdentifier EmptyProjection = "identifier"
)

// ParseEmptyProjection resolves a configured projection default.
func ParseEmptyProjection(s string) (EmptyProjection, error) {
	switch EmptyProjection(strings.ToLower(strings.TrimSpace(s))) {
	case "", ProjectAll:
		return ProjectAll, nil
	case ProjectIdentifier:
		return ProjectIdentifier, nil
	}
	return "", fmt.Errorf("unknown empty projection %q (want %q or %q)", s, ProjectAll, ProjectIdentifier)
}

// Options configures a ReportCompiler.
type Options struct {
	// MaxRows caps result size. Zero means DefaultMaxRows.
	MaxRows int
	// EmptyProjection applies when a request names no columns.
	EmptyProjection EmptyProjection
	// IdentifierColumn is projected for relations with no requested columns.
	IdentifierColumn string
	// Logger receives fail-soft diagnostics. Nil discards them.
	Logger *slog.Logger
}

// DefaultOptions returns the compiler defaults.
func DefaultOptions() Options {
	return Options{
		MaxRows:          DefaultMaxRows,
		EmptyProjection:  ProjectAll,
		IdentifierColumn: "id",
	}
}

// ReportCompiler compiles and runs report requests. It holds no per-request
// state and is safe for concurrent use.
type ReportCompiler struct {
	client   domain.Client
	metadata domain.MetadataProvider
	opts     Options
	logger   *slog.Logger
}

// NewReportCompiler creates a compiler. metadata may be nil, in which case
// IncludeRelations discovers nothing.
func NewReportCompiler(client domain.Client, metadata domain.MetadataProvider, opts Options) *ReportCompiler {
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}
	if opts.EmptyProjection == "" {
		opts.EmptyProjection = ProjectAll
	}
	if opts.IdentifierColumn == "" {
		opts.IdentifierColumn = "id"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ReportCompiler{
		client:   client,
		metadata: metadata,
		opts:     opts,
		logger:   logger,
	}
}

// Ordering is one compiled ORDER BY term.
type Ordering struct {
	Column       string
	ForeignTable string
	Ascending    bool
}

// Plan is a compiled report, ready to apply to a QueryBuilder.
type Plan struct {
	Table      string
	Projection string
	Relations  []*Relation
	Predicates []domain.Predicate
	Ordering   []Ordering
	Limit      int
}

// Compile builds the plan for req without touching the store, except for the
// foreign key lookup IncludeRelations asks for.
func (c *ReportCompiler) Compile(ctx context.Context, req domain.Request) (*Plan, error) {
	if strings.TrimSpace(req.Table) == "" {
		return nil, fmt.Errorf("%w: table is required", domain.ErrInvalidRequest)
	}

	predicates, err := domain.Predicates(req.Filters)
	if err != nil {
		return nil, err
	}

	relations := NewRelationSet()
	var own []string
	for _, col := range req.Columns {
		if rel, field, ok := domain.SplitColumn(col); ok {
			relations.Ensure(rel).Columns.Add(field)
			continue
		}
		own = append(own, col)
	}

	// Every dotted filter joins its relation; only filters that compiled to
	// a predicate make the join inner.
	for _, f := range req.Filters {
		if rel, _, ok := domain.SplitColumn(f.Column); ok {
			relations.Ensure(rel)
		}
	}
	for _, p := range predicates {
		if rel, _, ok := domain.SplitColumn(p.Column()); ok {
			relations.Ensure(rel).Inner = true
		}
	}

	known := c.knownColumns(req.Columns)
	var ordering []Ordering
	for _, s := range req.Sort {
		if rel, field, ok := domain.SplitColumn(s.Column); ok {
			relations.Ensure(rel).Inner = true
			ordering = append(ordering, Ordering{
				Column:       field,
				ForeignTable: rel,
				Ascending:    s.Direction.Ascending(),
			})
			continue
		}
		if !known(s.Column) {
			c.logger.Debug("dropping sort on unselected column", "table", req.Table, "column", s.Column)
			continue
		}
		ordering = append(ordering, Ordering{Column: s.Column, Ascending: s.Direction.Ascending()})
	}

	names := make([]string, 0, len(req.RelatedSelections))
	for name := range req.RelatedSelections {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		relations.Ensure(name).Columns.Add(req.RelatedSelections[name]...)
	}

	if req.IncludeRelations {
		for _, name := range c.discoverRelations(ctx, req.Table) {
			relations.Ensure(name)
		}
	}

	plan := &Plan{
		Table:      req.Table,
		Relations:  relations.Relations(),
		Predicates: predicates,
		Ordering:   ordering,
		Limit:      c.opts.MaxRows,
	}
	plan.Projection = c.projection(req.Columns, own, plan.Relations)
	if _, err := parser.Parse(plan.Projection); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	return plan, nil
}

// projection joins the base columns and relation fragments.
func (c *ReportCompiler) projection(columns, own []string, relations []*Relation) string {
	parts := make([]string, 0, len(own)+len(relations))
	switch {
	case len(columns) == 0 && c.opts.EmptyProjection == ProjectIdentifier:
		parts = append(parts, c.opts.IdentifierColumn)
	case len(columns) == 0:
		parts = append(parts, domain.Wildcard)
	default:
		parts = append(parts, own...)
	}
	for _, r := range relations {
		parts = append(parts, r.Fragment(c.opts.IdentifierColumn))
	}
	return strings.Join(parts, ",")
}

// knownColumns returns the membership test for undotted sort columns.
func (c *ReportCompiler) knownColumns(columns []string) func(string) bool {
	if len(columns) == 0 {
		if c.opts.EmptyProjection == ProjectIdentifier {
			return func(col string) bool { return col == c.opts.IdentifierColumn }
		}
		return func(string) bool { return true }
	}
	set := make(map[string]bool, len(columns))
	for _, col := range columns {
		set[col] = true
	}
	return func(col string) bool { return set[col] }
}

// discoverRelations lists the non-self foreign key targets of table. Lookup
// failures degrade to no relations.
func (c *ReportCompiler) discoverRelations(ctx context.Context, table string) []string {
	if c.metadata == nil {
		return nil
	}
	meta, err := c.metadata.TableMetadata(ctx, table)
	if err != nil {
		c.logger.Warn("relation discovery failed", "table", table, "err", err)
		return nil
	}
	if meta == nil {
		return nil
	}
	local := *meta
	if local.Name == "" {
		local.Name = table
	}
	return local.RelatedTables()
}

// Apply configures qb with the plan's projection, predicates, ordering and
// row cap.
func (p *Plan) Apply(qb domain.QueryBuilder) domain.QueryBuilder {
	qb = qb.Select(p.Projection)
	for _, pred := range p.Predicates {
		qb = pred.Apply(qb)
	}
	for _, o := range p.Ordering {
		qb = qb.Order(o.Column, domain.OrderOptions{
			Ascending:    o.Ascending,
			ForeignTable: o.ForeignTable,
		})
	}
	return qb.Limit(p.Limit)
}

// Prepare compiles req and returns a configured builder.
func (c *ReportCompiler) Prepare(ctx context.Context, req domain.Request) (*Plan, domain.QueryBuilder, error) {
	plan, err := c.Compile(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	return plan, plan.Apply(c.client.From(plan.Table)), nil
}

// Query compiles and executes req, returning any failure.
func (c *ReportCompiler) Query(ctx context.Context, req domain.Request) ([]domain.Row, error) {
	_, qb, err := c.Prepare(ctx, req)
	if err != nil {
		return nil, &domain.ReportError{Code: "compile", Table: req.Table, Message: "failed to compile report", Cause: err}
	}
	rows, err := qb.Execute(ctx)
	if err != nil {
		return nil, &domain.ReportError{Code: "execute", Table: req.Table, Message: "failed to execute report", Cause: err}
	}
	if rows == nil {
		rows = []domain.Row{}
	}
	return rows, nil
}

// Run compiles and executes req. Failures are logged and yield an empty
// result, so callers cannot tell "no rows" from "query failed"; use Query
// when that matters.
func (c *ReportCompiler) Run(ctx context.Context, req domain.Request) []domain.Row {
	rows, err := c.Query(ctx, req)
	if err != nil {
		c.logger.Error("report query failed", "table", req.Table, "err", err)
		return []domain.Row{}
	}
	return rows
}

// Options returns the effective compiler options.
func (c *ReportCompiler) Options() Options {
	return c.opts
}
