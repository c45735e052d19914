package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/satishbabariya/reportql/internal/core/report/domain"
	"github.com/satishbabariya/reportql/internal/service"
)

// Output formats for report rows.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// ValidOutput reports whether format is a known output format.
func ValidOutput(format string) bool {
	return format == OutputTable || format == OutputJSON
}

// RowTable flattens rows into a header and string cells. Embedded relations
// become "rel.col" columns placed after the base table's columns.
func RowTable(rows []domain.Row) ([]string, [][]string) {
	flat := make([]map[string]string, len(rows))
	seen := map[string]bool{}
	for i, row := range rows {
		flat[i] = map[string]string{}
		flatten("", row, flat[i])
		for k := range flat[i] {
			seen[k] = true
		}
	}

	headers := make([]string, 0, len(seen))
	for k := range seen {
		headers = append(headers, k)
	}
	sort.Slice(headers, func(i, j int) bool {
		ni, nj := strings.Contains(headers[i], "."), strings.Contains(headers[j], ".")
		if ni != nj {
			return !ni
		}
		return headers[i] < headers[j]
	})

	cells := make([][]string, len(flat))
	for i, row := range flat {
		cells[i] = make([]string, len(headers))
		for j, h := range headers {
			cells[i][j] = row[h]
		}
	}
	return headers, cells
}

func flatten(prefix string, row domain.Row, out map[string]string) {
	for k, v := range row {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(domain.Row); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = FormatValue(v)
	}
}

// FormatValue renders a scanned column value for a table cell.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}

// PrintRows writes rows in the given format.
func PrintRows(w io.Writer, rows []domain.Row, format string) error {
	if format == OutputJSON {
		return WriteJSON(w, rows)
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, SecondaryStyle.Render("(no rows)"))
		return err
	}
	headers, cells := RowTable(rows)
	if err := PrintTable(w, headers, cells); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, SecondaryStyle.Render(fmt.Sprintf("(%d rows)", len(rows))))
	return err
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ExplanationMarkdown describes a compiled report as markdown.
func ExplanationMarkdown(exp *service.Explanation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Report on `%s`\n\n", exp.Table)
	fmt.Fprintf(&b, "**Projection:** `%s`\n\n", exp.Projection)
	fmt.Fprintf(&b, "**Limit:** %d\n\n", exp.Limit)

	if len(exp.Relations) > 0 {
		b.WriteString("## Relations\n\n| Relation | Join | Columns |\n| --- | --- | --- |\n")
		for _, rel := range exp.Relations {
			join := "left"
			if rel.Inner {
				join = "inner"
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", rel.Name, join, strings.Join(rel.Columns, ", "))
		}
		b.WriteString("\n")
	}

	if len(exp.Predicates) > 0 {
		b.WriteString("## Filters\n\n| Column | Operator | Values |\n| --- | --- | --- |\n")
		for _, p := range exp.Predicates {
			values := make([]string, len(p.Values))
			for i, v := range p.Values {
				values[i] = FormatValue(v)
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", p.Column, p.Operator, strings.Join(values, ", "))
		}
		b.WriteString("\n")
	}

	if len(exp.Ordering) > 0 {
		b.WriteString("## Ordering\n\n")
		for _, o := range exp.Ordering {
			col := o.Column
			if o.ForeignTable != "" {
				col = o.ForeignTable + "." + o.Column
			}
			fmt.Fprintf(&b, "- `%s` %s\n", col, o.Direction)
		}
		b.WriteString("\n")
	}

	if exp.SQL != "" {
		fmt.Fprintf(&b, "## SQL\n\n```sql\n%s\n```\n", exp.SQL)
		if len(exp.Args) > 0 {
			args := make([]string, len(exp.Args))
			for i, a := range exp.Args {
				args[i] = fmt.Sprintf("%d: %s", i+1, FormatValue(a))
			}
			fmt.Fprintf(&b, "\nArguments: %s\n", strings.Join(args, ", "))
		}
	}
	return b.String()
}

// MetadataRows lists a table's columns with their foreign key targets.
func MetadataRows(meta *domain.TableMetadata) ([]string, [][]string) {
	refs := make(map[string]string, len(meta.ForeignKeys))
	for _, fk := range meta.ForeignKeys {
		refs[fk.ColumnName] = fk.ReferencedTable + "." + fk.ReferencedColumn
	}
	pk := make(map[string]bool, len(meta.PrimaryKey))
	for _, c := range meta.PrimaryKey {
		pk[c] = true
	}

	rows := make([][]string, 0, len(meta.Columns))
	for _, col := range meta.Columns {
		key := ""
		if pk[col.Name] {
			key = "PK"
		}
		nullable := "no"
		if col.Nullable {
			nullable = "yes"
		}
		rows = append(rows, []string{col.Name, col.Type, nullable, key, refs[col.Name]})
	}
	return []string{"Column", "Type", "Nullable", "Key", "References"}, rows
}
