package service

import (
	"context"

	"github.com/satishbabariya/reportql/internal/core/report/compiler"
	"github.com/satishbabariya/reportql/internal/core/report/domain"
)

// Explanation describes how a report compiles.
type Explanation struct {
	Table      string               `json:"table"`
	Projection string               `json:"projection"`
	Relations  []ExplainedRelation  `json:"relations"`
	Predicates []ExplainedPredicate `json:"predicates"`
	Ordering   []ExplainedOrdering  `json:"ordering"`
	Limit      int                  `json:"limit"`

	// SQL and Args are set when the store renders SQL.
	SQL  string `json:"sql,omitempty"`
	Args []any  `json:"args,omitempty"`
}

// ExplainedRelation is one embedded relation.
type ExplainedRelation struct {
	Name    string   `json:"name"`
	Inner   bool     `json:"inner"`
	Columns []string `json:"columns"`
}

// ExplainedPredicate is one compiled filter.
type ExplainedPredicate struct {
	Column   string          `json:"column"`
	Operator domain.Operator `json:"operator"`
	Values   []any           `json:"values"`
}

// ExplainedOrdering is one ORDER BY term.
type ExplainedOrdering struct {
	Column       string `json:"column"`
	ForeignTable string `json:"foreignTable,omitempty"`
	Direction    string `json:"direction"`
}

// sqlRenderer is implemented by builders that can show their SQL.
type sqlRenderer interface {
	ToSQL(ctx context.Context) (string, []any, error)
}

// Explain compiles req without executing it.
func (s *ReportService) Explain(ctx context.Context, req domain.Request) (*Explanation, error) {
	if s.compiler == nil {
		return nil, ErrNoDatabase
	}
	plan, qb, err := s.compiler.Prepare(ctx, req)
	if err != nil {
		return nil, &domain.ReportError{Code: "compile", Table: req.Table, Message: "failed to compile report", Cause: err}
	}

	exp := explainPlan(plan, s.compiler.Options().IdentifierColumn)
	if r, ok := qb.(sqlRenderer); ok {
		query, args, err := r.ToSQL(ctx)
		if err != nil {
			return nil, &domain.ReportError{Code: "compile", Table: req.Table, Message: "failed to render SQL", Cause: err}
		}
		exp.SQL = query
		exp.Args = args
	}

	s.logger.Debug("report explained", "table", req.Table, "projection", exp.Projection)
	return exp, nil
}

func explainPlan(plan *compiler.Plan, identifier string) *Explanation {
	exp := &Explanation{
		Table:      plan.Table,
		Projection: plan.Projection,
		Relations:  make([]ExplainedRelation, 0, len(plan.Relations)),
		Predicates: make([]ExplainedPredicate, 0, len(plan.Predicates)),
		Ordering:   make([]ExplainedOrdering, 0, len(plan.Ordering)),
		Limit:      plan.Limit,
	}
	for _, r := range plan.Relations {
		exp.Relations = append(exp.Relations, ExplainedRelation{
			Name:    r.Name,
			Inner:   r.Inner,
			Columns: r.Projection(identifier),
		})
	}
	for _, p := range plan.Predicates {
		exp.Predicates = append(exp.Predicates, ExplainedPredicate{
			Column:   p.Column(),
			Operator: p.Operator(),
			Values:   predicateValues(p),
		})
	}
	for _, o := range plan.Ordering {
		dir := "asc"
		if !o.Ascending {
			dir = "desc"
		}
		exp.Ordering = append(exp.Ordering, ExplainedOrdering{
			Column:       o.Column,
			ForeignTable: o.ForeignTable,
			Direction:    dir,
		})
	}
	return exp
}

func predicateValues(p domain.Predicate) []any {
	switch p := p.(type) {
	case domain.Eq:
		return []any{p.Value}
	case domain.Contains:
		return []any{p.Value}
	case domain.StartsWith:
		return []any{p.Value}
	case domain.EndsWith:
		return []any{p.Value}
	case domain.Gt:
		return []any{p.Value.Value()}
	case domain.Gte:
		return []any{p.Value.Value()}
	case domain.Lt:
		return []any{p.Value.Value()}
	case domain.Lte:
		return []any{p.Value.Value()}
	case domain.Between:
		return []any{p.Low.Value(), p.High.Value()}
	case domain.In:
		values := make([]any, len(p.Values))
		for i, v := range p.Values {
			values[i] = v
		}
		return values
	}
	return nil
}
