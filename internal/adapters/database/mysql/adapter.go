// Package mysql implements MySQL database adapter.
package mysql

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/satishbabariya/reportql/internal/adapters/database"
)

// MySQLAdapter implements the database.Adapter interface for MySQL.
type MySQLAdapter struct {
	*database.BaseAdapter
}

// NewMySQLAdapter creates a new MySQL adapter. URL may be a driver DSN
// (user:pass@tcp(host:3306)/db) or a mysql:// URL.
func NewMySQLAdapter(config database.Config) (*MySQLAdapter, error) {
	dsn, err := DSN(config.URL)
	if err != nil {
		return nil, err
	}
	return &MySQLAdapter{
		BaseAdapter: database.NewBaseAdapter(database.MySQL, "mysql", dsn, config),
	}, nil
}

// DSN converts a mysql:// URL into a driver DSN. Driver DSNs are validated
// and returned unchanged.
func DSN(raw string) (string, error) {
	if !strings.HasPrefix(raw, "mysql://") {
		if _, err := mysql.ParseDSN(raw); err != nil {
			return "", fmt.Errorf("invalid mysql dsn: %w", err)
		}
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid mysql url: %w", err)
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = u.Hostname() + ":3306"
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	// Dates scan as time.Time rather than []byte.
	cfg.ParseTime = true
	for key, values := range u.Query() {
		if len(values) == 0 {
			continue
		}
		if cfg.Params == nil {
			cfg.Params = make(map[string]string)
		}
		cfg.Params[key] = values[len(values)-1]
	}
	return cfg.FormatDSN(), nil
}

// Ensure MySQLAdapter implements Adapter interface.
var _ database.Adapter = (*MySQLAdapter)(nil)
