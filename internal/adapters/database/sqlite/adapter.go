// Package sqlite implements SQLite database adapter.
package sqlite

import (
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/satishbabariya/reportql/internal/adapters/database"
)

// SQLiteAdapter implements the database.Adapter interface for SQLite.
type SQLiteAdapter struct {
	*database.BaseAdapter
}

// NewSQLiteAdapter creates a new SQLite adapter. URL is a file path, a
// file: URI, or sqlite://path.
func NewSQLiteAdapter(config database.Config) (*SQLiteAdapter, error) {
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	config.MaxConnections = 1
	dsn := strings.TrimPrefix(config.URL, "sqlite://")
	return &SQLiteAdapter{
		// Foreign keys are disabled by default in SQLite.
		BaseAdapter: database.NewBaseAdapter(database.SQLite, "sqlite3", dsn, config, "PRAGMA foreign_keys = ON"),
	}, nil
}

// Ensure SQLiteAdapter implements Adapter interface.
var _ database.Adapter = (*SQLiteAdapter)(nil)
