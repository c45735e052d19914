// Package postgresql implements PostgreSQL table introspection.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/satishbabariya/reportql/internal/core/introspection/domain"
	report "github.com/satishbabariya/reportql/internal/core/report/domain"
)

// DefaultSchema is searched when no schema is configured.
const DefaultSchema = "public"

// Introspector implements domain.Introspector for PostgreSQL.
type Introspector struct {
	Schema string
}

// NewIntrospector creates a new PostgreSQL introspector for the public schema.
func NewIntrospector() *Introspector {
	return &Introspector{Schema: DefaultSchema}
}

const columnsQuery = `
	SELECT column_name, data_type, is_nullable, ordinal_position
	FROM information_schema.columns
	WHERE table_schema = $1 AND table_name = $2
	ORDER BY ordinal_position
`

const primaryKeyQuery = `
	SELECT kcu.column_name
	FROM information_schema.table_constraints AS tc
	JOIN information_schema.key_column_usage AS kcu
	  ON kcu.constraint_name = tc.constraint_name
	 AND kcu.table_schema = tc.table_schema
	WHERE tc.constraint_type = 'PRIMARY KEY'
	  AND tc.table_schema = $1
	  AND tc.table_name = $2
	ORDER BY kcu.ordinal_position
`

const foreignKeysQuery = `
	SELECT
		tc.constraint_name,
		kcu.column_name,
		ccu.table_name AS foreign_table_name,
		ccu.column_name AS foreign_column_name
	FROM information_schema.table_constraints AS tc
	JOIN information_schema.key_column_usage AS kcu
	  ON tc.constraint_name = kcu.constraint_name
	 AND tc.table_schema = kcu.table_schema
	JOIN information_schema.constraint_column_usage AS ccu
	  ON ccu.constraint_name = tc.constraint_name
	 AND ccu.table_schema = tc.table_schema
	WHERE tc.constraint_type = 'FOREIGN KEY'
	  AND tc.table_schema = $1
	  AND tc.table_name = $2
	ORDER BY tc.constraint_name, kcu.ordinal_position
`

// IntrospectTable introspects a single table.
func (i *Introspector) IntrospectTable(ctx context.Context, db *sql.DB, tableName string) (*report.TableMetadata, error) {
	schema := i.Schema
	if schema == "" {
		schema = DefaultSchema
	}

	columns, err := i.introspectColumns(ctx, db, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect columns of %s: %w", tableName, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s.%s", report.ErrTableNotFound, schema, tableName)
	}

	pk, err := i.introspectPrimaryKey(ctx, db, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect primary key of %s: %w", tableName, err)
	}

	fks, err := i.introspectForeignKeys(ctx, db, schema, tableName)
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

func (i *Introspector) introspectColumns(ctx context.Context, db *sql.DB, schema, tableName string) ([]report.ColumnMetadata, error) {
	rows, err := db.QueryContext(ctx, columnsQuery, schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []report.ColumnMetadata
	for rows.Next() {
		var col report.ColumnMetadata
		var isNullable string
		if err := rows.Scan(&col.Name, &col.Type, &isNullable, &col.Position); err != nil {
			return nil, err
		}
		col.Nullable = isNullable == "YES"
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (i *Introspector) introspectPrimaryKey(ctx context.Context, db *sql.DB, schema, tableName string) ([]string, error) {
	rows, err := db.QueryContext(ctx, primaryKeyQuery, schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (i *Introspector) introspectForeignKeys(ctx context.Context, db *sql.DB, schema, tableName string) ([]report.ForeignKey, error) {
	rows, err := db.QueryContext(ctx, foreignKeysQuery, schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []domain.ForeignKeyColumn
	for rows.Next() {
		var c domain.ForeignKeyColumn
		if err := rows.Scan(&c.Constraint, &c.Column, &c.ReferencedTable, &c.ReferencedColumn); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return domain.CollapseForeignKeys(cols), nil
}

// GetDatabaseVersion returns the PostgreSQL version.
func (i *Introspector) GetDatabaseVersion(ctx context.Context, db *sql.DB) (string, error) {
	var version string
	err := db.QueryRowContext(ctx, "SELECT version()").Scan(&version)
	return version, err
}

var _ domain.Introspector = (*Introspector)(nil)
