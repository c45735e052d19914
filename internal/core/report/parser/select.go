// Package parser parses the small expression languages reports use: the
// projection string handed to the query builder, CLI filter expressions, and
// sort shorthands.
package parser

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"

	"github.com/satishbabariya/reportql/internal/core/report/domain"
)

// Select is a parsed projection.
type Select struct {
	Columns []string
	Embeds  []Embed
}

// Embed is a nested relation in a projection.
type Embed struct {
	Relation string
	Inner    bool
	Columns  []string
}

// IsEmpty reports whether nothing was selected.
func (s *Select) IsEmpty() bool {
	return len(s.Columns) == 0 && len(s.Embeds) == 0
}

// Embed returns the embed for relation.
func (s *Select) Embed(relation string) (Embed, bool) {
	for _, e := range s.Embeds {
		if e.Relation == relation {
			return e, true
		}
	}
	return Embed{}, false
}

// String renders the canonical projection.
func (s *Select) String() string {
	parts := make([]string, 0, len(s.Columns)+len(s.Embeds))
	parts = append(parts, s.Columns...)
	for _, e := range s.Embeds {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, ",")
}

// String renders "rel(cols)" or "rel!inner(cols)".
func (e Embed) String() string {
	name := e.Relation
	if e.Inner {
		name += "!inner"
	}
	return name + "(" + strings.Join(e.Columns, ",") + ")"
}

// HasWildcard reports whether the embed selects every column.
func (e Embed) HasWildcard() bool {
	for _, c := range e.Columns {
		if c == domain.Wildcard {
			return true
		}
	}
	return false
}

type rawSelect struct {
	Items []*rawItem `( @@ ( "," @@ )* )?`
}

type rawItem struct {
	Name  string    `@( Ident | Star )`
	Hint  string    `( "!" @Ident )?`
	Embed *rawEmbed `@@?`
}

type rawEmbed struct {
	Open    bool     `@"("`
	Columns []string `( @( Ident | Star ) ( "," @( Ident | Star ) )* )? ")"`
}

var selectParser = participle.MustBuild[rawSelect](
	participle.Lexer(SelectLexer),
	participle.Elide("Whitespace"),
)

// Parse parses a projection string. The empty string is an empty selection.
func Parse(projection string) (*Select, error) {
	if strings.TrimSpace(projection) == "" {
		return &Select{}, nil
	}
	raw, err := selectParser.ParseString("", projection)
	if err != nil {
		return nil, fmt.Errorf("parse select %q: %w", projection, err)
	}

	sel := &Select{}
	for _, item := range raw.Items {
		if item.Embed == nil {
			if item.Hint != "" {
				return nil, fmt.Errorf("parse select %q: join hint on plain column %q", projection, item.Name)
			}
			sel.Columns = append(sel.Columns, item.Name)
			continue
		}
		if item.Name == domain.Wildcard {
			return nil, fmt.Errorf("parse select %q: cannot embed %q", projection, item.Name)
		}
		embed := Embed{Relation: item.Name, Columns: item.Embed.Columns}
		switch strings.ToLower(item.Hint) {
		case "":
		case "inner":
			embed.Inner = true
		case "left":
		default:
			return nil, fmt.Errorf("parse select %q: unknown join hint %q", projection, item.Hint)
		}
		sel.Embeds = append(sel.Embeds, embed)
	}
	return sel, nil
}
