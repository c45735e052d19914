// Package domain defines interfaces for database introspection.
package domain

import (
	"context"
	"database/sql"
	"sort"

	report "github.com/satishbabariya/reportql/internal/core/report/domain"
)

// Introspector describes tables of one SQL dialect.
type Introspector interface {
	// IntrospectTable returns columns, primary key and single-column
	// foreign keys of table.
	IntrospectTable(ctx context.Context, db *sql.DB, tableName string) (*report.TableMetadata, error)

	// GetDatabaseVersion returns the raw server version string.
	GetDatabaseVersion(ctx context.Context, db *sql.DB) (string, error)
}

// ForeignKeyColumn is one row of a foreign key listing. Composite keys span
// several rows sharing a constraint name.
type ForeignKeyColumn struct {
	Constraint       string
	Column           string
	ReferencedTable  string
	ReferencedColumn string
}

// CollapseForeignKeys groups rows by constraint, drops composite keys and
// returns the rest sorted by constraint name.
func CollapseForeignKeys(rows []ForeignKeyColumn) []report.ForeignKey {
	grouped := make(map[string][]ForeignKeyColumn)
	for _, r := range rows {
		grouped[r.Constraint] = append(grouped[r.Constraint], r)
	}

	fks := make([]report.ForeignKey, 0, len(grouped))
	for name, cols := range grouped {
		if len(cols) != 1 {
			continue
		}
		fks = append(fks, report.ForeignKey{
			Name:             name,
			ColumnName:       cols[0].Column,
			ReferencedTable:  cols[0].ReferencedTable,
			ReferencedColumn: cols[0].ReferencedColumn,
		})
	}
	sort.Slice(fks, func(i, j int) bool { return fks[i].Name < fks[j].Name })
	return fks
}
