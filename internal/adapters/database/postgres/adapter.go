// Package postgres implements PostgreSQL database adapter.
package postgres

import (
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/satishbabariya/reportql/internal/adapters/database"
)

// PostgresAdapter implements the database.Adapter interface for PostgreSQL.
type PostgresAdapter struct {
	*database.BaseAdapter
}

// NewPostgresAdapter creates a new PostgreSQL adapter. URL is any DSN lib/pq
// accepts, including postgres:// URLs.
func NewPostgresAdapter(config database.Config) (*PostgresAdapter, error) {
	return &PostgresAdapter{
		BaseAdapter: database.NewBaseAdapter(database.PostgreSQL, "postgres", config.URL, config),
	}, nil
}

// Ensure PostgresAdapter implements Adapter interface.
var _ database.Adapter = (*PostgresAdapter)(nil)
