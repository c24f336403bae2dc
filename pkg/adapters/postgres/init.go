package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/leapschema/pkg/adapter"
)

// Blank-importing this package makes capture.target.type "postgres" resolve to
// the PostgreSQL adapter.
func init() {
	adapter.Register("postgres", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
