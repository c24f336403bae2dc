package schema

import (
	"github.com/leapstack-labs/leapschema/internal/schemaview"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

// ViewData holds everything the schema view fragment renders.
type ViewData struct {
	BasePath string
	Rendered schemaview.Rendered
	Versions []core.VersionInfo
	Error    string
}

// VersionSignals is the payload of a version selection.
type VersionSignals struct {
	Version int `json:"version"`
}

// EditSignals is the payload of a field edit. Tags is a comma-separated list.
type EditSignals struct {
	Field       string `json:"field"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
}
