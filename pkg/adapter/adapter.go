// Package adapter provides the database adapter contract used to capture
// schema snapshots from live databases.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves with Register in their init functions.
package adapter

import (
	"context"

	"github.com/leapstack-labs/leapschema/pkg/core"
)

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg core.AdapterConfig) error

	// Close closes the database connection and releases resources.
	Close() error

	// GetTableMetadata retrieves columns and comments for a table.
	GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error)

	// ListTables returns the tables in a schema. An empty schema means the
	// adapter's default schema.
	ListTables(ctx context.Context, schema string) ([]string, error)

	// Platform returns the platform name recorded on captured snapshots.
	Platform() string
}
