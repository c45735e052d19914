package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// BaseAdapter implements Adapter over database/sql. Dialect packages embed it
// and supply the driver name, DSN and post-connect statements.
type BaseAdapter struct {
	db      *sql.DB
	dialect SQLDialect
	driver  string
	dsn     string
	config  Config
	// init runs once after the first successful ping.
	init []string
	// owned is false when wrapping a caller's pool.
	owned bool
}

// NewBaseAdapter creates an unconnected adapter.
func NewBaseAdapter(dialect SQLDialect, driver, dsn string, config Config, init ...string) *BaseAdapter {
	return &BaseAdapter{
		dialect: dialect,
		driver:  driver,
		dsn:     dsn,
		config:  config,
		init:    init,
		owned:   true,
	}
}

// FromDB wraps an existing pool. Disconnect leaves it open.
func FromDB(db *sql.DB, dialect SQLDialect) *BaseAdapter {
	return &BaseAdapter{db: db, dialect: dialect}
}

// Connect opens the pool, applies pool settings and pings within
// ConnectTimeout.
func (a *BaseAdapter) Connect(ctx context.Context) error {
	if a.db != nil {
		return nil
	}
	db, err := sql.Open(a.driver, a.dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if a.config.MaxConnections > 0 {
		db.SetMaxOpenConns(a.config.MaxConnections)
		db.SetMaxIdleConns(max(a.config.MaxConnections/2, 1))
	}
	if a.config.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(time.Duration(a.config.MaxIdleTime) * time.Second)
	}

	if a.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(a.config.ConnectTimeout)*time.Second)
		defer cancel()
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	for _, stmt := range a.init {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}

	a.db = db
	return nil
}

// Disconnect closes the pool if the adapter opened it.
func (a *BaseAdapter) Disconnect(ctx context.Context) error {
	if a.db == nil || !a.owned {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// Query executes a query that returns rows.
func (a *BaseAdapter) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if a.db == nil {
		return nil, ErrNotConnected
	}
	return a.db.QueryContext(ctx, query, args...)
}

// QueryRow executes a query that returns a single row. It returns nil when
// the adapter is not connected.
func (a *BaseAdapter) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	if a.db == nil {
		return nil
	}
	return a.db.QueryRowContext(ctx, query, args...)
}

// Ping checks if the database connection is alive.
func (a *BaseAdapter) Ping(ctx context.Context) error {
	if a.db == nil {
		return ErrNotConnected
	}
	return a.db.PingContext(ctx)
}

// GetDialect returns the SQL dialect.
func (a *BaseAdapter) GetDialect() SQLDialect {
	return a.dialect
}

// DB returns the underlying pool.
func (a *BaseAdapter) DB() *sql.DB {
	return a.db
}

var _ Adapter = (*BaseAdapter)(nil)
