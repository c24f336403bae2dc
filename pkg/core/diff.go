package core

// FieldStatus classifies a field when comparing two schema versions.
type FieldStatus string

// Field statuses.
const (
	FieldUnchanged          FieldStatus = "unchanged"
	FieldAdded              FieldStatus = "added"
	FieldRemoved            FieldStatus = "removed"
	FieldDescriptionUpdated FieldStatus = "descriptionUpdated"
)

// FieldDiffRow is a field from a comparison enriched with its status.
// Removed rows are synthesized from the prior field and are Historical.
type FieldDiffRow struct {
	Field  SchemaField  `json:"field"`
	Status FieldStatus  `json:"status"`
	Prior  *SchemaField `json:"prior,omitempty"`

	// Key is the normalized path the row was aligned on.
	Key string `json:"key"`
	// Depth is the nesting level of the field, 0 for top-level fields.
	Depth int `json:"depth"`
	// ParentPath is the path of the nearest ancestor row, if any.
	ParentPath string `json:"parent_path,omitempty"`
	// Historical marks rows that exist only in the prior version.
	Historical bool `json:"historical,omitempty"`

	// Edit is the overlay entry layered onto this row, if any.
	Edit *EditOverlayEntry `json:"edit,omitempty"`
}

// EffectiveDescription returns the overlay description when one is set,
// otherwise the field's own description.
func (r FieldDiffRow) EffectiveDescription() string {
	if r.Edit != nil && r.Edit.Description != nil {
		return *r.Edit.Description
	}
	return r.Field.Description
}

// EffectiveTags returns the overlay tags when set, otherwise the field's tags.
func (r FieldDiffRow) EffectiveTags() []TagRef {
	if r.Edit != nil && r.Edit.Tags != nil {
		return r.Edit.Tags
	}
	return r.Field.Tags
}

// DiffSummary holds aggregate counts for display.
type DiffSummary struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Updated int `json:"updated"`
}

// IsZero reports whether no change was counted.
func (s DiffSummary) IsZero() bool {
	return s.Added == 0 && s.Removed == 0 && s.Updated == 0
}

// DiffResult is the output of classifying two field lists.
type DiffResult struct {
	Rows    []FieldDiffRow `json:"rows"`
	Summary DiffSummary    `json:"summary"`
}

// VersionPair names the two versions being compared.
// Older is 0 when the newer version has no predecessor.
type VersionPair struct {
	Newer int `json:"newer"`
	Older int `json:"older"`
}

// PairFor returns the pair (v, v-1).
func PairFor(v int) VersionPair {
	return VersionPair{Newer: v, Older: v - 1}
}
