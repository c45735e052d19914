// Package sqlite implements SQLite table introspection.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/satishbabariya/reportql/internal/core/introspection/domain"
	report "github.com/satishbabariya/reportql/internal/core/report/domain"
)

// Introspector implements domain.Introspector for SQLite.
type Introspector struct{}

// NewIntrospector creates a new SQLite introspector.
func NewIntrospector() *Introspector {
	return &Introspector{}
}

// IntrospectTable introspects a single table.
func (i *Introspector) IntrospectTable(ctx context.Context, db *sql.DB, tableName string) (*report.TableMetadata, error) {
	columns, pk, err := i.introspectColumns(ctx, db, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect columns of %s: %w", tableName, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", report.ErrTableNotFound, tableName)
	}

	fks, err := i.introspectForeignKeys(ctx, db, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect foreign keys of %s: %w", tableName, err)
	}

	return &report.TableMetadata{
		Name:        tableName,
		Columns:     columns,
		PrimaryKey:  pk,
		ForeignKeys: fks,
	}, nil
}

// introspectColumns reads PRAGMA table_info. The primary key is ordered by
// the pk index SQLite reports.
func (i *Introspector) introspectColumns(ctx context.Context, db *sql.DB, tableName string) ([]report.ColumnMetadata, []string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quote(tableName)))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	type pkColumn struct {
		name  string
		index int
	}
	var columns []report.ColumnMetadata
	var pkCols []pkColumn
	for rows.Next() {
		var cid, notNull, pk int
		var name, typ string
		var defaultVal sql.NullString
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, nil, err
		}
		columns = append(columns, report.ColumnMetadata{
			Name:     name,
			Type:     typ,
			Nullable: notNull == 0 && pk == 0,
			Position: cid + 1,
		})
		if pk > 0 {
			pkCols = append(pkCols, pkColumn{name: name, index: pk})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	sort.Slice(pkCols, func(a, b int) bool { return pkCols[a].index < pkCols[b].index })
	var pk []string
	for _, c := range pkCols {
		pk = append(pk, c.name)
	}
	return columns, pk, nil
}

// introspectForeignKeys reads PRAGMA foreign_key_list. SQLite constraints are
// unnamed, so names follow the <table>_<column>_fkey convention.
func (i *Introspector) introspectForeignKeys(ctx context.Context, db *sql.DB, tableName string) ([]report.ForeignKey, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quote(tableName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type fkRow struct {
		id   int
		from string
		to   sql.NullString
		ref  string
	}
	var fkRows []fkRow
	for rows.Next() {
		var id, seq int
		var table, from string
		var to sql.NullString
		var onUpdate, onDelete, match string
		if err := rows.Scan(&id, &seq, &table, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		fkRows = append(fkRows, fkRow{id: id, from: from, to: to, ref: table})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	counts := make(map[int]int)
	for _, r := range fkRows {
		counts[r.id]++
	}

	var cols []domain.ForeignKeyColumn
	for _, r := range fkRows {
		c := domain.ForeignKeyColumn{
			Constraint:       fmt.Sprintf("%s_%s_fkey", tableName, r.from),
			Column:           r.from,
			ReferencedTable:  r.ref,
			ReferencedColumn: r.to.String,
		}
		if counts[r.id] > 1 {
			// Composite: keep rows under one shared name so they are dropped.
			c.Constraint = fmt.Sprintf("%s_fk%d", tableName, r.id)
		}
		if !r.to.Valid || r.to.String == "" {
			// REFERENCES t without a column targets t's primary key.
			_, pk, err := i.introspectColumns(ctx, db, r.ref)
			if err != nil {
				return nil, err
			}
			if len(pk) != 1 {
				continue
			}
			c.ReferencedColumn = pk[0]
		}
		cols = append(cols, c)
	}
	return domain.CollapseForeignKeys(cols), nil
}

// GetDatabaseVersion returns the SQLite library version.
func (i *Introspector) GetDatabaseVersion(ctx context.Context, db *sql.DB) (string, error) {
	var version string
	err := db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version)
	return version, err
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

var _ domain.Introspector = (*Introspector)(nil)
