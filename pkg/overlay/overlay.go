// Package overlay holds the sparse, field-path keyed layer of user edits
// applied on top of a schema snapshot.
package overlay

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapschema/pkg/core"
)

// ErrEmptyFieldPath is returned when an edit names no field.
var ErrEmptyFieldPath = errors.New("overlay: empty field path")

// MergePolicy controls how an upsert treats an existing entry.
type MergePolicy string

// Merge policies.
const (
	// MergeFields overwrites only the keys present in the patch.
	MergeFields MergePolicy = "merge"
	// ReplaceEntry replaces the whole entry with the patch.
	ReplaceEntry MergePolicy = "replace"
)

// ParsePolicy parses a policy name. The empty string selects MergeFields.
func ParsePolicy(s string) (MergePolicy, error) {
	switch MergePolicy(s) {
	case "", MergeFields:
		return MergeFields, nil
	case ReplaceEntry:
		return ReplaceEntry, nil
	default:
		return "", fmt.Errorf("unknown merge policy %q (expected %q or %q)", s, MergeFields, ReplaceEntry)
	}
}

// Store maps field paths to edit entries. Entries keep their insertion
// position; a new path appends. There is never more than one entry per path.
//
// Store is not safe for concurrent use; it is owned by a single view.
type Store struct {
	policy  MergePolicy
	entries []core.EditOverlayEntry
	index   map[string]int
}

// New creates an empty store.
func New(policy MergePolicy) *Store {
	if policy == "" {
		policy = MergeFields
	}
	return &Store{policy: policy, index: make(map[string]int)}
}

// Policy returns the store's merge policy.
func (s *Store) Policy() MergePolicy {
	return s.policy
}

// FromExternalState replaces the contents with persisted entries. Duplicate
// paths collapse onto the first position with the last value winning, and
// entries without a path are dropped.
func (s *Store) FromExternalState(entries []core.EditOverlayEntry) {
	s.entries = make([]core.EditOverlayEntry, 0, len(entries))
	s.index = make(map[string]int, len(entries))
	for _, e := range entries {
		if e.FieldPath == "" {
			continue
		}
		if i, ok := s.index[e.FieldPath]; ok {
			s.entries[i] = e.Clone()
			continue
		}
		s.index[e.FieldPath] = len(s.entries)
		s.entries = append(s.entries, e.Clone())
	}
}

// Upsert records a patch for path.
func (s *Store) Upsert(path string, patch core.FieldPatch) error {
	if path == "" {
		return ErrEmptyFieldPath
	}

	i, ok := s.index[path]
	if !ok {
		s.index[path] = len(s.entries)
		s.entries = append(s.entries, fromPatch(path, patch))
		return nil
	}

	if s.policy == ReplaceEntry {
		s.entries[i] = fromPatch(path, patch)
		return nil
	}

	next := fromPatch(path, patch)
	if next.Description != nil {
		s.entries[i].Description = next.Description
	}
	if next.Tags != nil {
		s.entries[i].Tags = next.Tags
	}
	return nil
}

func fromPatch(path string, patch core.FieldPatch) core.EditOverlayEntry {
	return core.EditOverlayEntry{
		FieldPath:   path,
		Description: patch.Description,
		Tags:        patch.Tags,
	}.Clone()
}

// Get returns a copy of the entry for path.
func (s *Store) Get(path string) (core.EditOverlayEntry, bool) {
	i, ok := s.index[path]
	if !ok {
		return core.EditOverlayEntry{}, false
	}
	return s.entries[i].Clone(), true
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// ToUpdatePayload returns a deep copy of all entries in position order.
func (s *Store) ToUpdatePayload() []core.EditOverlayEntry {
	out := make([]core.EditOverlayEntry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Clone()
	}
	return out
}

// Clone returns an independent copy of the store.
func (s *Store) Clone() *Store {
	c := New(s.policy)
	c.FromExternalState(s.entries)
	return c
}

// Apply attaches overlay entries to the rows they edit, matching on the
// field's path and then on its normalized key. Historical rows are left
// untouched. The input slice is not modified.
func (s *Store) Apply(rows []core.FieldDiffRow) []core.FieldDiffRow {
	out := make([]core.FieldDiffRow, len(rows))
	copy(out, rows)
	for i := range out {
		if out[i].Historical {
			continue
		}
		idx, ok := s.index[out[i].Field.Path]
		if !ok {
			idx, ok = s.index[out[i].Key]
		}
		if !ok {
			continue
		}
		e := s.entries[idx].Clone()
		out[i].Edit = &e
	}
	return out
}
