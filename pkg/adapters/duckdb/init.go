package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/leapschema/pkg/adapter"
)

// Blank-importing this package makes capture.target.type "duckdb" resolve to
// the DuckDB adapter.
func init() {
	adapter.Register("duckdb", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
