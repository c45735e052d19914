package domain

// TableMetadata describes one table of the backing store.
type TableMetadata struct {
	Name        string           `json:"name" yaml:"name"`
	Columns     []ColumnMetadata `json:"columns" yaml:"columns"`
	PrimaryKey  []string         `json:"primaryKey,omitempty" yaml:"primary_key,omitempty"`
	ForeignKeys []ForeignKey     `json:"foreignKeys" yaml:"foreign_keys"`
}

// ColumnMetadata describes a table column.
type ColumnMetadata struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Nullable bool   `json:"nullable" yaml:"nullable"`
	Position int    `json:"position" yaml:"position"`
}

// ForeignKey is a single-column foreign key constraint.
type ForeignKey struct {
	Name             string `json:"name" yaml:"name"`
	ColumnName       string `json:"columnName" yaml:"column_name"`
	ReferencedTable  string `json:"referencedTable" yaml:"referenced_table"`
	ReferencedColumn string `json:"referencedColumn" yaml:"referenced_column"`
}

// ColumnNames returns column names in ordinal order.
func (t *TableMetadata) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ForeignKeyTo returns the first foreign key referencing table.
func (t *TableMetadata) ForeignKeyTo(table string) (ForeignKey, bool) {
	for _, fk := range t.ForeignKeys {
		if fk.ReferencedTable == table {
			return fk, true
		}
	}
	return ForeignKey{}, false
}

// RelatedTables returns referenced tables in foreign key order, skipping
// self-references and duplicates.
func (t *TableMetadata) RelatedTables() []string {
	seen := make(map[string]bool)
	var out []string
	for _, fk := range t.ForeignKeys {
		if fk.ReferencedTable == t.Name || seen[fk.ReferencedTable] {
			continue
		}
		seen[fk.ReferencedTable] = true
		out = append(out, fk.ReferencedTable)
	}
	return out
}
