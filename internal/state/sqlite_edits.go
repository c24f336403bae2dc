package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/leapstack-labs/leapschema/pkg/core"
)

// PersistEdits replaces the stored overlay of a dataset with entries and
// returns the stored result.
func (s *SQLiteStore) PersistEdits(ctx context.Context, urn string, entries []core.EditOverlayEntry) ([]core.EditOverlayEntry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM datasets WHERE urn = ?`, urn).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check dataset: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrDatasetNotFound, urn)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM editable_fields WHERE dataset_urn = ?`, urn); err != nil {
		return nil, fmt.Errorf("clear edits: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO editable_fields (dataset_urn, field_path, position, description, tags, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(dataset_urn, field_path) DO UPDATE SET
			description = excluded.description,
			tags = excluded.tags,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for i, e := range entries {
		if e.FieldPath == "" {
			return nil, fmt.Errorf("edit %d has an empty field path", i)
		}
		var desc sql.NullString
		if e.Description != nil {
			desc = sql.NullString{String: *e.Description, Valid: true}
		}
		tags, err := encodeTags(e.Tags)
		if err != nil {
			return nil, err
		}
		if _, err := stmt.ExecContext(ctx, urn, e.FieldPath, i, desc, tags, now); err != nil {
			return nil, fmt.Errorf("insert edit for %s: %w", e.FieldPath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return s.LoadEdits(ctx, urn)
}

// LoadEdits returns the stored overlay of a dataset in position order.
func (s *SQLiteStore) LoadEdits(ctx context.Context, urn string) ([]core.EditOverlayEntry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT field_path, description, tags
		FROM editable_fields
		WHERE dataset_urn = ?
		ORDER BY position
	`, urn)
	if err != nil {
		return nil, fmt.Errorf("query edits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []core.EditOverlayEntry{}
	for rows.Next() {
		var e core.EditOverlayEntry
		var desc, tags sql.NullString
		if err := rows.Scan(&e.FieldPath, &desc, &tags); err != nil {
			return nil, fmt.Errorf("scan edit: %w", err)
		}
		if desc.Valid {
			d := desc.String
			e.Description = &d
		}
		if e.Tags, err = decodeTags(tags); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}
