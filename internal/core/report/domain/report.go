// Package domain contains the core entities and interfaces for the Report domain.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Row is a single result record keyed by column name. Embedded relations are
// nested under the relation name.
type Row = map[string]any

// Request is a declarative report: a base table, the columns to project,
// relation expansions, filters and ordering.
type Request struct {
	Table             string            `json:"table" yaml:"table"`
	Columns           []string          `json:"columns,omitempty" yaml:"columns,omitempty"`
	IncludeRelations  bool              `json:"includeRelations,omitempty" yaml:"include_relations,omitempty"`
	Filters           []FilterSpec      `json:"filters,omitempty" yaml:"filters,omitempty"`
	Sort              SortList          `json:"sort,omitempty" yaml:"sort,omitempty"`
	RelatedSelections RelationSelection `json:"relatedSelections,omitempty" yaml:"related,omitempty"`
}

// FilterSpec is a single filter as supplied by a caller.
type FilterSpec struct {
	Column   string   `json:"column" yaml:"column"`
	Operator Operator `json:"operator,omitempty" yaml:"operator,omitempty"`
	Value    string   `json:"value" yaml:"value"`
	ValueTo  string   `json:"valueTo,omitempty" yaml:"value_to,omitempty"`
}

// Operator names a filter operator.
type Operator string

const (
	// OpEq is an exact match.
	OpEq Operator = "eq"
	// OpContains is a case-insensitive substring match.
	OpContains Operator = "contains"
	// OpStartsWith is a case-insensitive prefix match.
	OpStartsWith Operator = "startsWith"
	// OpEndsWith is a case-insensitive suffix match.
	OpEndsWith Operator = "endsWith"
	// OpGt is greater than.
	OpGt Operator = "gt"
	// OpGte is greater than or equal.
	OpGte Operator = "gte"
	// OpLt is less than.
	OpLt Operator = "lt"
	// OpLte is less than or equal.
	OpLte Operator = "lte"
	// OpBetween is an inclusive range.
	OpBetween Operator = "between"
	// OpIn is set membership.
	OpIn Operator = "in"
)

var operators = []Operator{
	OpEq, OpContains, OpStartsWith, OpEndsWith,
	OpGt, OpGte, OpLt, OpLte, OpBetween, OpIn,
}

// Operators returns every supported operator.
func Operators() []Operator {
	out := make([]Operator, len(operators))
	copy(out, operators)
	return out
}

// ParseOperator resolves an operator name. The empty string means OpEq.
// Names match case-insensitively.
func ParseOperator(s string) (Operator, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return OpEq, nil
	}
	for _, op := range operators {
		if strings.EqualFold(string(op), s) {
			return op, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOperator, s)
}

// SortDirection is asc or desc.
type SortDirection string

const (
	// Asc sorts ascending.
	Asc SortDirection = "asc"
	// Desc sorts descending.
	Desc SortDirection = "desc"
)

// Ascending reports whether the direction sorts ascending. Anything other
// than desc is ascending.
func (d SortDirection) Ascending() bool {
	return !strings.EqualFold(string(d), string(Desc))
}

// SortSpec orders results by one column.
type SortSpec struct {
	Column    string        `json:"column" yaml:"column"`
	Direction SortDirection `json:"direction,omitempty" yaml:"direction,omitempty"`
}

// SortList accepts either a single sort object or a list of them when
// decoded from JSON or YAML.
type SortList []SortSpec

// UnmarshalJSON implements json.Unmarshaler.
func (s *SortList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*s = nil
		return nil
	case strings.HasPrefix(trimmed, "{"):
		var one SortSpec
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*s = SortList{one}
		return nil
	}
	var many []SortSpec
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *SortList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		var one SortSpec
		if err := node.Decode(&one); err != nil {
			return err
		}
		*s = SortList{one}
		return nil
	}
	var many []SortSpec
	if err := node.Decode(&many); err != nil {
		return err
	}
	*s = many
	return nil
}

// RelationSelection maps a related table to the columns projected from it.
// The wildcard "*" projects every column.
type RelationSelection map[string][]string

// Wildcard projects every column of a table.
const Wildcard = "*"

// SplitColumn splits a relation-qualified column "rel.col". ok is false for
// plain columns.
func SplitColumn(column string) (relation, field string, ok bool) {
	relation, field, ok = strings.Cut(column, ".")
	if !ok || relation == "" || field == "" {
		return "", column, false
	}
	return relation, field, true
}

// Clone returns a deep copy of the request.
func (r Request) Clone() Request {
	out := r
	out.Columns = append([]string(nil), r.Columns...)
	out.Filters = append([]FilterSpec(nil), r.Filters...)
	out.Sort = append(SortList(nil), r.Sort...)
	if r.RelatedSelections != nil {
		out.RelatedSelections = make(RelationSelection, len(r.RelatedSelections))
		for k, v := range r.RelatedSelections {
			out.RelatedSelections[k] = append([]string(nil), v...)
		}
	}
	return out
}
