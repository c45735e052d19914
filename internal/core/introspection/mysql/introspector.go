// Package mysql implements MySQL table introspection.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/satishbabariya/reportql/internal/core/introspection/domain"
	report "github.com/satishbabariya/reportql/internal/core/report/domain"
)

// Introspector implements domain.Introspector for MySQL. Tables are looked up
// in the connection's current database.
type Introspector struct{}

// NewIntrospector creates a new MySQL introspector.
func NewIntrospector() *Introspector {
	return &Introspector{}
}

const columnsQuery = `
	SELECT column_name, data_type, is_nullable, ordinal_position
	FROM information_schema.columns
	WHERE table_schema = DATABASE() AND table_name = ?
	ORDER BY ordinal_position
`

const primaryKeyQuery = `
	SELECT column_name
	FROM information_schema.key_column_usage
	WHERE table_schema = DATABASE() AND table_name = ?
	  AND constraint_name = 'PRIMARY'
	ORDER BY ordinal_position
`

const foreignKeysQuery = `
	SELECT constraint_name, column_name, referenced_table_name, referenced_column_name
	FROM information_schema.key_column_usage
	WHERE table_schema = DATABASE() AND table_name = ?
	  AND referenced_table_name IS NOT NULL
	ORDER BY constraint_name, ordinal_position
`

// IntrospectTable introspects a single table.
func (i *Introspector) IntrospectTable(ctx context.Context, db *sql.DB, tableName string) (*report.TableMetadata, error) {
	columns, err := i.introspectColumns(ctx, db, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect columns of %s: %w", tableName, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", report.ErrTableNotFound, tableName)
	}

	pk, err := i.introspectPrimaryKey(ctx, db, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect primary key of %s: %w", tableName, err)
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

func (i *Introspector) introspectColumns(ctx context.Context, db *sql.DB, tableName string) ([]report.ColumnMetadata, error) {
	rows, err := db.QueryContext(ctx, columnsQuery, tableName)
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

func (i *Introspector) introspectPrimaryKey(ctx context.Context, db *sql.DB, tableName string) ([]string, error) {
	rows, err := db.QueryContext(ctx, primaryKeyQuery, tableName)
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

func (i *Introspector) introspectForeignKeys(ctx context.Context, db *sql.DB, tableName string) ([]report.ForeignKey, error) {
	rows, err := db.QueryContext(ctx, foreignKeysQuery, tableName)
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

// GetDatabaseVersion returns the MySQL version.
func (i *Introspector) GetDatabaseVersion(ctx context.Context, db *sql.DB) (string, error) {
	var version string
	err := db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version)
	return version, err
}

var _ domain.Introspector = (*Introspector)(nil)
