package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Predicate is a typed filter condition. The set of implementations is
// closed: the unexported marker keeps other packages from adding variants,
// and every variant must know how to apply itself to a QueryBuilder.
type Predicate interface {
	// Column returns the (possibly relation-qualified) target column.
	Column() string
	// Operator returns the operator the predicate was built from.
	Operator() Operator
	// Apply adds the predicate to a query.
	Apply(qb QueryBuilder) QueryBuilder

	predicate()
}

// Scalar is a comparison operand. Values that look like decimal numbers
// compare numerically, everything else compares as text.
type Scalar struct {
	Raw    string
	number any
}

var numericPattern = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)

// NewScalar classifies a raw operand.
func NewScalar(raw string) Scalar {
	s := Scalar{Raw: raw}
	if !numericPattern.MatchString(raw) {
		return s
	}
	if !strings.Contains(raw, ".") {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			s.number = n
			return s
		}
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		s.number = f
	}
	return s
}

// IsNumeric reports whether the operand compares numerically.
func (s Scalar) IsNumeric() bool {
	return s.number != nil
}

// Value returns the operand as int64, float64 or string.
func (s Scalar) Value() any {
	if s.number != nil {
		return s.number
	}
	return s.Raw
}

// Eq is an exact match.
type Eq struct {
	Col   string
	Value string
}

// Contains is a case-insensitive substring match.
type Contains struct {
	Col   string
	Value string
}

// StartsWith is a case-insensitive prefix match.
type StartsWith struct {
	Col   string
	Value string
}

// EndsWith is a case-insensitive suffix match.
type EndsWith struct {
	Col   string
	Value string
}

// Gt is a strict lower bound.
type Gt struct {
	Col   string
	Value Scalar
}

// Gte is an inclusive lower bound.
type Gte struct {
	Col   string
	Value Scalar
}

// Lt is a strict upper bound.
type Lt struct {
	Col   string
	Value Scalar
}

// Lte is an inclusive upper bound.
type Lte struct {
	Col   string
	Value Scalar
}

// Between is an inclusive range.
type Between struct {
	Col  string
	Low  Scalar
	High Scalar
}

// In is set membership. Values is never empty.
type In struct {
	Col    string
	Values []string
}

func (p Eq) Column() string         { return p.Col }
func (p Contains) Column() string   { return p.Col }
func (p StartsWith) Column() string { return p.Col }
func (p EndsWith) Column() string   { return p.Col }
func (p Gt) Column() string         { return p.Col }
func (p Gte) Column() string        { return p.Col }
func (p Lt) Column() string         { return p.Col }
func (p Lte) Column() string        { return p.Col }
func (p Between) Column() string    { return p.Col }
func (p In) Column() string         { return p.Col }

func (Eq) Operator() Operator         { return OpEq }
func (Contains) Operator() Operator   { return OpContains }
func (StartsWith) Operator() Operator { return OpStartsWith }
func (EndsWith) Operator() Operator   { return OpEndsWith }
func (Gt) Operator() Operator         { return OpGt }
func (Gte) Operator() Operator        { return OpGte }
func (Lt) Operator() Operator         { return OpLt }
func (Lte) Operator() Operator        { return OpLte }
func (Between) Operator() Operator    { return OpBetween }
func (In) Operator() Operator         { return OpIn }

func (p Eq) Apply(qb QueryBuilder) QueryBuilder { return qb.Eq(p.Col, p.Value) }

func (p Contains) Apply(qb QueryBuilder) QueryBuilder {
	return qb.ILike(p.Col, "%"+p.Value+"%")
}

func (p StartsWith) Apply(qb QueryBuilder) QueryBuilder {
	return qb.ILike(p.Col, p.Value+"%")
}

func (p EndsWith) Apply(qb QueryBuilder) QueryBuilder {
	return qb.ILike(p.Col, "%"+p.Value)
}

func (p Gt) Apply(qb QueryBuilder) QueryBuilder  { return qb.Gt(p.Col, p.Value.Value()) }
func (p Gte) Apply(qb QueryBuilder) QueryBuilder { return qb.Gte(p.Col, p.Value.Value()) }
func (p Lt) Apply(qb QueryBuilder) QueryBuilder  { return qb.Lt(p.Col, p.Value.Value()) }
func (p Lte) Apply(qb QueryBuilder) QueryBuilder { return qb.Lte(p.Col, p.Value.Value()) }

func (p Between) Apply(qb QueryBuilder) QueryBuilder {
	return qb.Gte(p.Col, p.Low.Value()).Lte(p.Col, p.High.Value())
}

func (p In) Apply(qb QueryBuilder) QueryBuilder {
	values := make([]any, len(p.Values))
	for i, v := range p.Values {
		values[i] = v
	}
	return qb.In(p.Col, values)
}

func (Eq) predicate()         {}
func (Contains) predicate()   {}
func (StartsWith) predicate() {}
func (EndsWith) predicate()   {}
func (Gt) predicate()         {}
func (Gte) predicate()        {}
func (Lt) predicate()         {}
func (Lte) predicate()        {}
func (Between) predicate()    {}
func (In) predicate()         {}

// NewPredicate translates a FilterSpec. ok is false when the filter is a
// no-op: an empty value, or an in-list with no usable tokens. A between
// without an upper bound degrades to Eq on the lower bound.
func NewPredicate(f FilterSpec) (p Predicate, ok bool, err error) {
	op, err := ParseOperator(string(f.Operator))
	if err != nil {
		return nil, false, fmt.Errorf("filter on %q: %w", f.Column, err)
	}
	if f.Value == "" {
		return nil, false, nil
	}

	switch op {
	case OpEq:
		return Eq{Col: f.Column, Value: f.Value}, true, nil
	case OpContains:
		return Contains{Col: f.Column, Value: f.Value}, true, nil
	case OpStartsWith:
		return StartsWith{Col: f.Column, Value: f.Value}, true, nil
	case OpEndsWith:
		return EndsWith{Col: f.Column, Value: f.Value}, true, nil
	case OpGt:
		return Gt{Col: f.Column, Value: NewScalar(f.Value)}, true, nil
	case OpGte:
		return Gte{Col: f.Column, Value: NewScalar(f.Value)}, true, nil
	case OpLt:
		return Lt{Col: f.Column, Value: NewScalar(f.Value)}, true, nil
	case OpLte:
		return Lte{Col: f.Column, Value: NewScalar(f.Value)}, true, nil
	case OpBetween:
		if f.ValueTo == "" {
			return Eq{Col: f.Column, Value: f.Value}, true, nil
		}
		return Between{Col: f.Column, Low: NewScalar(f.Value), High: NewScalar(f.ValueTo)}, true, nil
	case OpIn:
		values := SplitValues(f.Value)
		if len(values) == 0 {
			return nil, false, nil
		}
		return In{Col: f.Column, Values: values}, true, nil
	}
	return nil, false, fmt.Errorf("filter on %q: %w: %q", f.Column, ErrUnknownOperator, op)
}

// SplitValues splits an in-list on commas or semicolons, trimming tokens and
// dropping empty ones.
func SplitValues(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Predicates translates filters in input order, skipping no-ops.
func Predicates(filters []FilterSpec) ([]Predicate, error) {
	out := make([]Predicate, 0, len(filters))
	for _, f := range filters {
		p, ok, err := NewPredicate(f)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}
