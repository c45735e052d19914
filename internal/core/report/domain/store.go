package domain

import "context"

// QueryBuilder is the relational-store query interface reports compile to.
// Builders are single-use: each call returns the builder for chaining and
// Execute runs the accumulated query once.
type QueryBuilder interface {
	// Select sets the projection, e.g. "title,community!inner(name)".
	Select(projection string) QueryBuilder

	// Eq adds an exact-match condition.
	Eq(column string, value any) QueryBuilder

	// ILike adds a case-insensitive pattern match using % wildcards.
	ILike(column, pattern string) QueryBuilder

	// Gt adds a column > value condition.
	Gt(column string, value any) QueryBuilder

	// Gte adds a column >= value condition.
	Gte(column string, value any) QueryBuilder

	// Lt adds a column < value condition.
	Lt(column string, value any) QueryBuilder

	// Lte adds a column <= value condition.
	Lte(column string, value any) QueryBuilder

	// In adds a set-membership condition.
	In(column string, values []any) QueryBuilder

	// Order appends an ORDER BY term.
	Order(column string, opts OrderOptions) QueryBuilder

	// Limit caps the number of rows returned.
	Limit(n int) QueryBuilder

	// Execute runs the query.
	Execute(ctx context.Context) ([]Row, error)
}

// OrderOptions qualifies an ORDER BY term.
type OrderOptions struct {
	Ascending bool
	// ForeignTable orders by a column of an embedded relation.
	ForeignTable string
}

// Client opens query builders against tables.
type Client interface {
	// From starts a query on table.
	From(table string) QueryBuilder
}

// MetadataProvider describes tables of the backing store.
type MetadataProvider interface {
	// TableMetadata returns the columns and foreign keys of table.
	TableMetadata(ctx context.Context, table string) (*TableMetadata, error)
}
