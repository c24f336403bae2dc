package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/leapstack-labs/leapschema/pkg/core"
)

// SaveSnapshot stores snap as the next version of its dataset. When the
// content hash equals the latest stored version, nothing is written and the
// latest version is returned with created=false.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *core.Snapshot) (*core.Snapshot, bool, error) {
	if err := s.checkOpen(); err != nil {
		return nil, false, err
	}
	if snap.DatasetURN == "" {
		return nil, false, fmt.Errorf("snapshot has no dataset urn")
	}

	hash, err := SnapshotHash(snap)
	if err != nil {
		return nil, false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := ensureDataset(ctx, tx, snap.DatasetURN, snap.Platform); err != nil {
		return nil, false, err
	}

	var latest int
	var latestHash sql.NullString
	err = tx.QueryRowContext(ctx, `
		SELECT version, hash FROM schema_versions
		WHERE dataset_urn = ?
		ORDER BY version DESC
		LIMIT 1
	`, snap.DatasetURN).Scan(&latest, &latestHash)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("get latest version: %w", err)
	}

	if latest > 0 && latestHash.String == hash {
		if err := tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("commit transaction: %w", err)
		}
		existing, err := s.getSnapshot(ctx, snap.DatasetURN, latest)
		return existing, false, err
	}

	saved := &core.Snapshot{
		DatasetURN: snap.DatasetURN,
		Version:    latest + 1,
		Platform:   snap.Platform,
		Fields:     snap.Fields,
		RawForm:    snap.RawForm,
		Hash:       hash,
		CreatedAt:  time.Now().UTC(),
	}
	versionID := generateID()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO schema_versions (id, dataset_urn, version, raw_form, hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, versionID, saved.DatasetURN, saved.Version, saved.RawForm, saved.Hash, saved.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("insert version: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO schema_fields
		(version_id, position, path, type_kind, native_type, description, nullable, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, false, fmt.Errorf("prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, f := range saved.Fields {
		if f.Path == "" {
			return nil, false, fmt.Errorf("field %d has an empty path", i)
		}
		tags, err := encodeTags(f.Tags)
		if err != nil {
			return nil, false, err
		}
		if _, err := stmt.ExecContext(ctx, versionID, i, f.Path, string(f.Type.Kind),
			f.Type.NativeType, f.Description, f.Nullable, tags); err != nil {
			return nil, false, fmt.Errorf("insert field %s: %w", f.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit transaction: %w", err)
	}
	return saved, true, nil
}

// FetchVersions returns the snapshots for newer and older. The older
// snapshot is nil when older < 1.
func (s *SQLiteStore) FetchVersions(ctx context.Context, urn string, newer, older int) (*core.Snapshot, *core.Snapshot, error) {
	if err := s.checkOpen(); err != nil {
		return nil, nil, err
	}

	n, err := s.getSnapshot(ctx, urn, newer)
	if err != nil {
		return nil, nil, err
	}
	if older < 1 {
		return n, nil, nil
	}
	o, err := s.getSnapshot(ctx, urn, older)
	if err != nil {
		return nil, nil, err
	}
	return n, o, nil
}

// GetSnapshot returns one stored version.
func (s *SQLiteStore) GetSnapshot(ctx context.Context, urn string, version int) (*core.Snapshot, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.getSnapshot(ctx, urn, version)
}

func (s *SQLiteStore) getSnapshot(ctx context.Context, urn string, version int) (*core.Snapshot, error) {
	snap := &core.Snapshot{DatasetURN: urn, Version: version}
	var versionID string

	err := s.db.QueryRowContext(ctx, `
		SELECT v.id, v.raw_form, v.hash, v.created_at, d.platform
		FROM schema_versions v
		JOIN datasets d ON d.urn = v.dataset_urn
		WHERE v.dataset_urn = ? AND v.version = ?
	`, urn, version).Scan(&versionID, &snap.RawForm, &snap.Hash, &snap.CreatedAt, &snap.Platform)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s version %d", core.ErrVersionNotFound, urn, version)
	}
	if err != nil {
		return nil, fmt.Errorf("get version %d: %w", version, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, type_kind, native_type, description, nullable, tags
		FROM schema_fields
		WHERE version_id = ?
		ORDER BY position
	`, versionID)
	if err != nil {
		return nil, fmt.Errorf("query fields: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snap.Fields = []core.SchemaField{}
	for rows.Next() {
		var f core.SchemaField
		var kind string
		var tags sql.NullString
		if err := rows.Scan(&f.Path, &kind, &f.Type.NativeType, &f.Description, &f.Nullable, &tags); err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		f.Type.Kind = core.FieldTypeKind(kind)
		if f.Tags, err = decodeTags(tags); err != nil {
			return nil, err
		}
		snap.Fields = append(snap.Fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return snap, nil
}

// LatestVersion returns the highest stored version of a dataset.
func (s *SQLiteStore) LatestVersion(ctx context.Context, urn string) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	var latest sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(version) FROM schema_versions WHERE dataset_urn = ?`, urn,
	).Scan(&latest)
	if err != nil {
		return 0, fmt.Errorf("get latest version: %w", err)
	}
	if !latest.Valid {
		return 0, fmt.Errorf("%w: %s", core.ErrDatasetNotFound, urn)
	}
	return int(latest.Int64), nil
}

// ListVersions returns all stored versions of a dataset, oldest first.
func (s *SQLiteStore) ListVersions(ctx context.Context, urn string) ([]core.VersionInfo, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT v.version, v.hash, v.created_at,
		       (SELECT COUNT(*) FROM schema_fields f WHERE f.version_id = v.id)
		FROM schema_versions v
		WHERE v.dataset_urn = ?
		ORDER BY v.version
	`, urn)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.VersionInfo
	for rows.Next() {
		var vi core.VersionInfo
		if err := rows.Scan(&vi.Version, &vi.Hash, &vi.CreatedAt, &vi.FieldCount); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		out = append(out, vi)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrDatasetNotFound, urn)
	}
	return out, nil
}

// ListDatasets returns every dataset with at least one version.
func (s *SQLiteStore) ListDatasets(ctx context.Context) ([]core.DatasetInfo, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT d.urn, d.platform, MAX(v.version)
		FROM datasets d
		JOIN schema_versions v ON v.dataset_urn = d.urn
		GROUP BY d.urn, d.platform
		ORDER BY d.urn
	`)
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.DatasetInfo
	for rows.Next() {
		var d core.DatasetInfo
		if err := rows.Scan(&d.URN, &d.Platform, &d.LatestVersion); err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ResolveVersion turns a version reference into an absolute version.
// Positive refs are absolute; zero and negative refs count back from the
// latest version, so 0 is the latest and -1 the one before it.
func (s *SQLiteStore) ResolveVersion(ctx context.Context, urn string, ref int) (int, error) {
	latest, err := s.LatestVersion(ctx, urn)
	if err != nil {
		return 0, err
	}
	return RelativeToAbsolute(latest, ref)
}

// RelativeToAbsolute resolves ref against latest. See ResolveVersion.
func RelativeToAbsolute(latest, ref int) (int, error) {
	v := ref
	if ref <= 0 {
		v = latest + ref
	}
	if v < 1 || v > latest {
		return 0, fmt.Errorf("%w: reference %d resolves outside 1..%d", core.ErrVersionNotFound, ref, latest)
	}
	return v, nil
}

func encodeTags(tags []core.TagRef) (sql.NullString, error) {
	if tags == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal tags: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeTags(raw sql.NullString) ([]core.TagRef, error) {
	if !raw.Valid {
		return nil, nil
	}
	tags := []core.TagRef{}
	if err := json.Unmarshal([]byte(raw.String), &tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	return tags, nil
}
