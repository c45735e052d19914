// Package introspection reads table metadata from the connected database.
package introspection

import (
	"context"
	"fmt"

	"github.com/satishbabariya/reportql/internal/adapters/database"
	"github.com/satishbabariya/reportql/internal/core/introspection/domain"
	"github.com/satishbabariya/reportql/internal/core/introspection/mysql"
	"github.com/satishbabariya/reportql/internal/core/introspection/postgresql"
	"github.com/satishbabariya/reportql/internal/core/introspection/sqlite"
	report "github.com/satishbabariya/reportql/internal/core/report/domain"
)

// Provider serves table metadata for one adapter.
type Provider struct {
	adapter      database.Adapter
	introspector domain.Introspector
}

// NewIntrospector returns the introspector for dialect.
func NewIntrospector(dialect database.SQLDialect) (domain.Introspector, error) {
	switch dialect {
	case database.PostgreSQL:
		return postgresql.NewIntrospector(), nil
	case database.MySQL:
		return mysql.NewIntrospector(), nil
	case database.SQLite:
		return sqlite.NewIntrospector(), nil
	}
	return nil, fmt.Errorf("no introspector for dialect %q", dialect)
}

// NewProvider creates a provider for adapter's dialect.
func NewProvider(adapter database.Adapter) (*Provider, error) {
	in, err := NewIntrospector(adapter.GetDialect())
	if err != nil {
		return nil, err
	}
	return &Provider{adapter: adapter, introspector: in}, nil
}

// TableMetadata returns the columns, primary key and foreign keys of table.
func (p *Provider) TableMetadata(ctx context.Context, table string) (*report.TableMetadata, error) {
	db := p.adapter.DB()
	if db == nil {
		return nil, database.ErrNotConnected
	}
	return p.introspector.IntrospectTable(ctx, db, table)
}

// ServerVersion returns the raw server version string.
func (p *Provider) ServerVersion(ctx context.Context) (string, error) {
	db := p.adapter.DB()
	if db == nil {
		return "", database.ErrNotConnected
	}
	v, err := p.introspector.GetDatabaseVersion(ctx, db)
	if err != nil {
		return "", fmt.Errorf("failed to read server version: %w", err)
	}
	return v, nil
}

// CheckServer reads the server version and compares it with the supported
// minimum.
func (p *Provider) CheckServer(ctx context.Context) (*VersionCheck, error) {
	raw, err := p.ServerVersion(ctx)
	if err != nil {
		return nil, err
	}
	return CheckVersion(p.adapter.GetDialect(), raw)
}

var _ report.MetadataProvider = (*Provider)(nil)
