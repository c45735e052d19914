package compiler

import (
	"strings"

	"github.com/satishbabariya/reportql/internal/core/report/domain"
)

// ColumnSet is an insertion-ordered set of column names.
type ColumnSet struct {
	names []string
	seen  map[string]bool
}

// Add appends columns not already present. Empty names are ignored.
func (s *ColumnSet) Add(columns ...string) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	for _, c := range columns {
		c = strings.TrimSpace(c)
		if c == "" || s.seen[c] {
			continue
		}
		s.seen[c] = true
		s.names = append(s.names, c)
	}
}

// Has reports whether column is in the set.
func (s *ColumnSet) Has(column string) bool {
	return s.seen[column]
}

// Len returns the number of columns.
func (s *ColumnSet) Len() int {
	return len(s.names)
}

// Values returns the columns in insertion order.
func (s *ColumnSet) Values() []string {
	return append([]string(nil), s.names...)
}

// Relation is one embedded table of a compiled report.
type Relation struct {
	Name    string
	Inner   bool
	Columns ColumnSet
}

// Projection returns the columns to select from the relation: "*" when the
// wildcard was requested, the identifier column when nothing was.
func (r *Relation) Projection(identifier string) []string {
	switch {
	case r.Columns.Has(domain.Wildcard):
		return []string{domain.Wildcard}
	case r.Columns.Len() == 0:
		return []string{identifier}
	default:
		return r.Columns.Values()
	}
}

// Fragment renders the relation as "name(cols)" or "name!inner(cols)".
func (r *Relation) Fragment(identifier string) string {
	var b strings.Builder
	b.WriteString(r.Name)
	if r.Inner {
		b.WriteString("!inner")
	}
	b.WriteByte('(')
	b.WriteString(strings.Join(r.Projection(identifier), ","))
	b.WriteByte(')')
	return b.String()
}

// RelationSet accumulates the join set of a report in first-seen order.
type RelationSet struct {
	order  []*Relation
	byName map[string]*Relation
}

// NewRelationSet returns an empty set.
func NewRelationSet() *RelationSet {
	return &RelationSet{byName: make(map[string]*Relation)}
}

// Ensure returns the named relation, adding it if absent.
func (s *RelationSet) Ensure(name string) *Relation {
	if r, ok := s.byName[name]; ok {
		return r
	}
	r := &Relation{Name: name}
	s.byName[name] = r
	s.order = append(s.order, r)
	return r
}

// Lookup returns the named relation if present.
func (s *RelationSet) Lookup(name string) (*Relation, bool) {
	r, ok := s.byName[name]
	return r, ok
}

// Relations returns the relations in first-seen order.
func (s *RelationSet) Relations() []*Relation {
	return append([]*Relation(nil), s.order...)
}

// Len returns the number of relations.
func (s *RelationSet) Len() int {
	return len(s.order)
}
