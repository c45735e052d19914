package parser

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"

	"github.com/satishbabariya/reportql/internal/core/report/domain"
)

// rawFilter matches "col=value" or "col op value [and value]".
type rawFilter struct {
	Column   string `@Word`
	Assign   bool   `( @"="`
	Value    string `  @( String | Word )?`
	Operator string `| @Word`
	Low      string `  @( String | Word )`
	High     string `  ( "and" @( String | Word ) )? )`
}

var filterParser = participle.MustBuild[rawFilter](
	participle.Lexer(FilterLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
)

// ParseFilter parses a filter expression:
//
//	status=open
//	community.name eq Provo
//	title contains "intro to"
//	age between 18 and 30
//	status in "a, b ,,c"
func ParseFilter(expr string) (domain.FilterSpec, error) {
	raw, err := filterParser.ParseString("", expr)
	if err != nil {
		return domain.FilterSpec{}, fmt.Errorf("parse filter %q: %w", expr, err)
	}
	if raw.Assign {
		return domain.FilterSpec{Column: raw.Column, Operator: domain.OpEq, Value: raw.Value}, nil
	}

	op, err := domain.ParseOperator(raw.Operator)
	if err != nil {
		return domain.FilterSpec{}, fmt.Errorf("parse filter %q: %w", expr, err)
	}
	if raw.High != "" && op != domain.OpBetween {
		return domain.FilterSpec{}, fmt.Errorf("parse filter %q: upper bound only applies to %s", expr, domain.OpBetween)
	}
	return domain.FilterSpec{
		Column:   raw.Column,
		Operator: op,
		Value:    raw.Low,
		ValueTo:  raw.High,
	}, nil
}

// ParseFilters parses each expression in order.
func ParseFilters(exprs []string) ([]domain.FilterSpec, error) {
	out := make([]domain.FilterSpec, 0, len(exprs))
	for _, e := range exprs {
		f, err := ParseFilter(e)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// ParseSort parses "column[:asc|desc]".
func ParseSort(expr string) (domain.SortSpec, error) {
	column, dir, _ := strings.Cut(strings.TrimSpace(expr), ":")
	column = strings.TrimSpace(column)
	if column == "" {
		return domain.SortSpec{}, fmt.Errorf("parse sort %q: missing column", expr)
	}
	switch d := domain.SortDirection(strings.ToLower(strings.TrimSpace(dir))); d {
	case "", domain.Asc:
		return domain.SortSpec{Column: column, Direction: domain.Asc}, nil
	case domain.Desc:
		return domain.SortSpec{Column: column, Direction: domain.Desc}, nil
	default:
		return domain.SortSpec{}, fmt.Errorf("parse sort %q: direction must be asc or desc", expr)
	}
}

// ParseSorts parses each expression in order.
func ParseSorts(exprs []string) (domain.SortList, error) {
	out := make(domain.SortList, 0, len(exprs))
	for _, e := range exprs {
		s, err := ParseSort(e)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// ParseRelation parses a "rel=c1,c2" relation selection flag.
func ParseRelation(expr string) (string, []string, error) {
	name, cols, ok := strings.Cut(expr, "=")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, fmt.Errorf("parse relation %q: missing relation name", expr)
	}
	if !ok {
		return name, nil, nil
	}
	return name, domain.SplitValues(cols), nil
}
