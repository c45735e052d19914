package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	report "github.com/satishbabariya/reportql/internal/core/report/domain"
	"github.com/satishbabariya/reportql/internal/core/report/parser"
)

type condition struct {
	column string
	op     string
	value  any
	values []any
}

type ordering struct {
	column       string
	foreignTable string
	ascending    bool
}

// Query accumulates builder calls and renders them as one SELECT. A Query
// is single-use and not safe for concurrent use.
type Query struct {
	client     *Client
	table      string
	projection string
	conds      []condition
	orders     []ordering
	limit      int
}

// Statement is a rendered query.
type Statement struct {
	SQL  string
	Args []any
	// Embeds lists the joined relations whose "rel.col" columns are nested.
	Embeds []string
}

// Join is one resolved embed.
type Join struct {
	Type      string // "LEFT" or "INNER"
	Table     string
	Condition string
	Columns   []string
}

func (q *Query) Select(projection string) report.QueryBuilder {
	q.projection = projection
	return q
}

func (q *Query) Eq(column string, value any) report.QueryBuilder {
	q.conds = append(q.conds, condition{column: column, op: "=", value: value})
	return q
}

func (q *Query) ILike(column, pattern string) report.QueryBuilder {
	q.conds = append(q.conds, condition{column: column, op: "like", value: pattern})
	return q
}

func (q *Query) Gt(column string, value any) report.QueryBuilder {
	q.conds = append(q.conds, condition{column: column, op: ">", value: value})
	return q
}

func (q *Query) Gte(column string, value any) report.QueryBuilder {
	q.conds = append(q.conds, condition{column: column, op: ">=", value: value})
	return q
}

func (q *Query) Lt(column string, value any) report.QueryBuilder {
	q.conds = append(q.conds, condition{column: column, op: "<", value: value})
	return q
}

func (q *Query) Lte(column string, value any) report.QueryBuilder {
	q.conds = append(q.conds, condition{column: column, op: "<=", value: value})
	return q
}

func (q *Query) In(column string, values []any) report.QueryBuilder {
	q.conds = append(q.conds, condition{column: column, op: "in", values: values})
	return q
}

func (q *Query) Order(column string, opts report.OrderOptions) report.QueryBuilder {
	q.orders = append(q.orders, ordering{column: column, foreignTable: opts.ForeignTable, ascending: opts.Ascending})
	return q
}

func (q *Query) Limit(n int) report.QueryBuilder {
	q.limit = n
	return q
}

// ToSQL renders the query without running it.
func (q *Query) ToSQL(ctx context.Context) (string, []any, error) {
	stmt, err := q.Compile(ctx)
	if err != nil {
		return "", nil, err
	}
	return stmt.SQL, stmt.Args, nil
}

// Compile renders the query. Embeds need base-table metadata to find the
// foreign key for each join.
func (q *Query) Compile(ctx context.Context) (*Statement, error) {
	d, err := dialectFor(q.client.adapter.GetDialect())
	if err != nil {
		return nil, err
	}
	sel, err := parser.Parse(q.projection)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrInvalidRequest, err)
	}

	joins, err := q.resolveJoins(ctx, d, sel)
	if err != nil {
		return nil, err
	}
	joined := make(map[string]bool, len(joins))
	for _, j := range joins {
		joined[j.Table] = true
	}

	var selectCols []string
	switch {
	case len(sel.Columns) == 0 && len(joins) == 0:
		selectCols = append(selectCols, "*")
	case len(sel.Columns) == 0:
		selectCols = append(selectCols, d.column(q.table, "*"))
	default:
		for _, col := range sel.Columns {
			selectCols = append(selectCols, d.column(q.table, col))
		}
	}
	stmt := &Statement{}
	for _, j := range joins {
		for _, col := range j.Columns {
			selectCols = append(selectCols, d.column(j.Table, col)+" AS "+d.quote(j.Table+"."+col))
		}
		stmt.Embeds = append(stmt.Embeds, j.Table)
	}

	parts := []string{
		"SELECT " + strings.Join(selectCols, ", "),
		"FROM " + d.quote(q.table),
	}
	for _, j := range joins {
		parts = append(parts, fmt.Sprintf("%s JOIN %s ON %s", j.Type, d.quote(j.Table), j.Condition))
	}

	argIndex := 1
	if len(q.conds) > 0 {
		where := make([]string, 0, len(q.conds))
		for _, c := range q.conds {
			col, err := q.resolveColumn(d, joined, c.column)
			if err != nil {
				return nil, err
			}
			switch c.op {
			case "in":
				if len(c.values) == 0 {
					where = append(where, "1=0")
					continue
				}
				ph := make([]string, len(c.values))
				for i, v := range c.values {
					ph[i] = d.placeholder(argIndex)
					argIndex++
					stmt.Args = append(stmt.Args, v)
				}
				where = append(where, fmt.Sprintf("%s IN (%s)", col, strings.Join(ph, ", ")))
			case "like":
				where = append(where, fmt.Sprintf("%s %s %s", col, d.likeOp, d.placeholder(argIndex)))
				argIndex++
				stmt.Args = append(stmt.Args, c.value)
			default:
				where = append(where, fmt.Sprintf("%s %s %s", col, c.op, d.placeholder(argIndex)))
				argIndex++
				stmt.Args = append(stmt.Args, c.value)
			}
		}
		parts = append(parts, "WHERE "+strings.Join(where, " AND "))
	}

	if len(q.orders) > 0 {
		terms := make([]string, len(q.orders))
		for i, o := range q.orders {
			column := o.column
			if o.foreignTable != "" {
				column = o.foreignTable + "." + o.column
			}
			col, err := q.resolveColumn(d, joined, column)
			if err != nil {
				return nil, err
			}
			dir := "ASC"
			if !o.ascending {
				dir = "DESC"
			}
			terms[i] = col + " " + dir
		}
		parts = append(parts, "ORDER BY "+strings.Join(terms, ", "))
	}

	if q.limit > 0 {
		parts = append(parts, "LIMIT "+d.placeholder(argIndex))
		stmt.Args = append(stmt.Args, q.limit)
	}

	stmt.SQL = strings.Join(parts, " ")
	return stmt, nil
}

// resolveJoins turns each embed into a many-to-one join along the base
// table's foreign key.
func (q *Query) resolveJoins(ctx context.Context, d dialect, sel *parser.Select) ([]Join, error) {
	if len(sel.Embeds) == 0 {
		return nil, nil
	}
	if q.client.metadata == nil {
		return nil, fmt.Errorf("%w: no metadata to resolve embeds of %s", report.ErrNoRelationship, q.table)
	}
	base, err := q.client.metadata.TableMetadata(ctx, q.table)
	if err != nil {
		return nil, err
	}

	joins := make([]Join, 0, len(sel.Embeds))
	for _, e := range sel.Embeds {
		if e.Relation == q.table {
			return nil, fmt.Errorf("%w: %s cannot embed itself", report.ErrNoRelationship, q.table)
		}
		fk, ok := base.ForeignKeyTo(e.Relation)
		if !ok {
			return nil, fmt.Errorf("%w: %s -> %s", report.ErrNoRelationship, q.table, e.Relation)
		}

		columns := e.Columns
		if e.HasWildcard() {
			rel, err := q.client.metadata.TableMetadata(ctx, e.Relation)
			if err != nil {
				return nil, err
			}
			columns = rel.ColumnNames()
		}

		join := Join{
			Type:      "LEFT",
			Table:     e.Relation,
			Condition: fmt.Sprintf("%s = %s", d.column(e.Relation, fk.ReferencedColumn), d.column(q.table, fk.ColumnName)),
			Columns:   columns,
		}
		if e.Inner {
			join.Type = "INNER"
		}
		joins = append(joins, join)
	}
	return joins, nil
}

// resolveColumn qualifies a plain or "rel.col" column.
func (q *Query) resolveColumn(d dialect, joined map[string]bool, column string) (string, error) {
	rel, field, ok := report.SplitColumn(column)
	if !ok {
		return d.column(q.table, column), nil
	}
	if !joined[rel] {
		return "", fmt.Errorf("%w: %q references %s, which is not embedded", report.ErrInvalidRequest, column, rel)
	}
	return d.column(rel, field), nil
}

// Execute runs the query and returns rows with embedded relations nested.
func (q *Query) Execute(ctx context.Context) ([]report.Row, error) {
	stmt, err := q.Compile(ctx)
	if err != nil {
		return nil, err
	}
	q.client.logger.Debug("executing report query", "table", q.table, "sql", stmt.SQL, "args", len(stmt.Args))

	rows, err := q.client.adapter.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()
	return scanRows(rows, stmt.Embeds)
}

func scanRows(rows *sql.Rows, embeds []string) ([]report.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	embedded := make(map[string]bool, len(embeds))
	for _, e := range embeds {
		embedded[e] = true
	}
	// A base column may not share its key with a nested relation.
	for _, col := range columns {
		if embedded[col] {
			return nil, fmt.Errorf("%w: column %q collides with embedded relation %s", report.ErrInvalidRequest, col, col)
		}
	}

	results := []report.Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(report.Row, len(columns))
		nested := make(map[string]report.Row, len(embeds))
		present := make(map[string]bool, len(embeds))
		for _, e := range embeds {
			nested[e] = report.Row{}
		}
		for i, col := range columns {
			val := values[i]
			// Convert []byte to string for text columns
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			if rel, field, ok := report.SplitColumn(col); ok && embedded[rel] {
				nested[rel][field] = val
				if val != nil {
					present[rel] = true
				}
				continue
			}
			row[col] = val
		}
		for _, e := range embeds {
			if present[e] {
				row[e] = nested[e]
			} else {
				row[e] = nil
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return results, nil
}

var _ report.QueryBuilder = (*Query)(nil)
