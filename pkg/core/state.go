package core

import (
	"context"
	"errors"
)

// Store lookup errors.
var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrVersionNotFound = errors.New("schema version not found")
)

// SnapshotFetcher fetches a pair of schema versions for a dataset.
// The older snapshot is nil when older < 1.
type SnapshotFetcher interface {
	FetchVersions(ctx context.Context, urn string, newer, older int) (*Snapshot, *Snapshot, error)
}

// EditPersister persists the full overlay for a dataset and echoes the
// stored state, which callers treat as the new source of truth.
type EditPersister interface {
	PersistEdits(ctx context.Context, urn string, entries []EditOverlayEntry) ([]EditOverlayEntry, error)
}

// Store defines the state operations used by the CLI and UI.
type Store interface {
	SnapshotFetcher
	EditPersister

	Open(path string) error
	Close() error
	InitSchema() error

	// Snapshot operations
	SaveSnapshot(ctx context.Context, snap *Snapshot) (*Snapshot, bool, error)
	LatestVersion(ctx context.Context, urn string) (int, error)
	ListVersions(ctx context.Context, urn string) ([]VersionInfo, error)
	ListDatasets(ctx context.Context) ([]DatasetInfo, error)

	// Overlay operations
	LoadEdits(ctx context.Context, urn string) ([]EditOverlayEntry, error)
}
