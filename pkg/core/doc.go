// Package core defines the shared language of the leapschema system.
//
// This package contains:
//   - Schema entities (SchemaField, FieldType, TagRef, Snapshot)
//   - Comparison results (FieldDiffRow, DiffSummary, DiffResult)
//   - Overlay edits (EditOverlayEntry, FieldPatch, TagsUpdate)
//   - Collaborator interfaces (SnapshotFetcher, EditPersister, Store)
//   - Capture configuration (TargetConfig, AdapterConfig, TableMetadata)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
