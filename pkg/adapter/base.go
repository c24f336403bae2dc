package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapschema/pkg/core"
)

// Queries holds the platform SQL used by the shared metadata helpers.
// Each query takes the schema and table name as its two parameters.
type Queries struct {
	// Columns returns name, type, nullable ('YES'/'NO'), position, comment.
	Columns string
	// TableComment returns a single comment string. Optional.
	TableComment string
	// Tables takes only the schema and returns table names. Optional.
	Tables string
}

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations.
type BaseSQLAdapter struct {
	DB            *sql.DB
	Cfg           core.AdapterConfig
	Logger        *slog.Logger
	DefaultSchema string
	Queries       Queries
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// ParseQualifiedName splits a table reference into schema and name.
// Uses defaultSchema if the reference is unqualified.
func ParseQualifiedName(table, defaultSchema string) (schema, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return defaultSchema, table
}

// GetTableMetadata retrieves columns and comments using b.Queries.
func (b *BaseSQLAdapter) GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	schema, tableName := ParseQualifiedName(table, b.schema())

	rows, err := b.DB.QueryContext(ctx, b.Queries.Columns, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var col core.Column
		var nullable string
		var comment sql.NullString
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position, &comment); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		col.Comment = comment.String
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	meta := &core.TableMetadata{
		Schema:  schema,
		Name:    tableName,
		Columns: columns,
	}

	if b.Queries.TableComment != "" {
		var comment sql.NullString
		if err := b.DB.QueryRowContext(ctx, b.Queries.TableComment, schema, tableName).Scan(&comment); err != nil {
			// Non-fatal, the table is still usable without a comment
			b.logger().Debug("table comment lookup failed", slog.String("table", table), slog.String("error", err.Error()))
		}
		meta.Comment = comment.String
	}

	return meta, nil
}

// ListTables returns the tables in schema using b.Queries.Tables.
func (b *BaseSQLAdapter) ListTables(ctx context.Context, schema string) ([]string, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	if b.Queries.Tables == "" {
		return nil, fmt.Errorf("listing tables is not supported")
	}
	if schema == "" {
		schema = b.schema()
	}

	rows, err := b.DB.QueryContext(ctx, b.Queries.Tables, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, schema+"."+name)
	}
	return tables, rows.Err()
}

func (b *BaseSQLAdapter) schema() string {
	if b.Cfg.Schema != "" {
		return b.Cfg.Schema
	}
	return b.DefaultSchema
}

func (b *BaseSQLAdapter) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}
