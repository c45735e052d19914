// Package sqlstore implements the report query builder over a SQL database.
package sqlstore

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/reportql/internal/adapters/database"
)

// dialect holds the per-database SQL spelling.
type dialect struct {
	name        database.SQLDialect
	quote       func(string) string
	placeholder func(int) string
	likeOp      string
}

func quoteDouble(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteBacktick(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func dollarPlaceholder(i int) string {
	return fmt.Sprintf("$%d", i)
}

func questionPlaceholder(int) string {
	return "?"
}

func dialectFor(d database.SQLDialect) (dialect, error) {
	switch d {
	case database.PostgreSQL:
		return dialect{name: d, quote: quoteDouble, placeholder: dollarPlaceholder, likeOp: "ILIKE"}, nil
	case database.MySQL:
		// Default collations compare case-insensitively.
		return dialect{name: d, quote: quoteBacktick, placeholder: questionPlaceholder, likeOp: "LIKE"}, nil
	case database.SQLite:
		// LIKE is case-insensitive for ASCII.
		return dialect{name: d, quote: quoteDouble, placeholder: questionPlaceholder, likeOp: "LIKE"}, nil
	}
	return dialect{}, fmt.Errorf("unsupported dialect %q", d)
}

// column renders table.column quoted.
func (d dialect) column(table, column string) string {
	if column == "*" {
		return d.quote(table) + ".*"
	}
	return d.quote(table) + "." + d.quote(column)
}
