// Package database defines database adapter interfaces.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrNotConnected is returned by adapters used before Connect.
var ErrNotConnected = errors.New("database not connected")

// Adapter defines the database adapter interface.
type Adapter interface {
	// Connect establishes a database connection.
	Connect(ctx context.Context) error

	// Disconnect closes the database connection.
	Disconnect(ctx context.Context) error

	// Query executes a query that returns rows.
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)

	// QueryRow executes a query that returns a single row.
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row

	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// GetDialect returns the SQL dialect.
	GetDialect() SQLDialect

	// DB returns the underlying pool, or nil before Connect.
	DB() *sql.DB
}

// SQLDialect represents a SQL dialect.
type SQLDialect string

const (
	// PostgreSQL dialect.
	PostgreSQL SQLDialect = "postgres"
	// MySQL dialect.
	MySQL SQLDialect = "mysql"
	// SQLite dialect.
	SQLite SQLDialect = "sqlite"
)

// ParseDialect maps a configured provider name to a dialect.
func ParseDialect(provider string) (SQLDialect, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "postgresql", "postgres":
		return PostgreSQL, nil
	case "mysql":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported database provider: %q", provider)
}

// Config holds database connection configuration.
type Config struct {
	Provider       string
	URL            string
	MaxConnections int
	MaxIdleTime    int // seconds
	ConnectTimeout int // seconds
}
