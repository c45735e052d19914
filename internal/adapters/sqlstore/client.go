package sqlstore

import (
	"log/slog"

	"github.com/satishbabariya/reportql/internal/adapters/database"
	report "github.com/satishbabariya/reportql/internal/core/report/domain"
)

// Client opens report queries against a SQL database. Embedded relations are
// resolved to joins through the metadata provider.
type Client struct {
	adapter  database.Adapter
	metadata report.MetadataProvider
	logger   *slog.Logger
}

// NewClient creates a client. A nil logger discards output.
func NewClient(adapter database.Adapter, metadata report.MetadataProvider, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		adapter:  adapter,
		metadata: metadata,
		logger:   logger,
	}
}

// From starts a single-use query on table.
func (c *Client) From(table string) report.QueryBuilder {
	return &Query{client: c, table: table}
}

var _ report.Client = (*Client)(nil)
