// Package schemadiff classifies the fields of two schema versions.
package schemadiff

import (
	"fmt"

	"github.com/leapstack-labs/leapschema/pkg/core"
	"github.com/leapstack-labs/leapschema/pkg/fieldpath"
)

// Classify merge-walks the current and prior field lists in canonical order
// and tags every field. When pairwise is true, or prior is nil, no comparison
// is made: every current field is unchanged and no removed rows appear.
func Classify(current, prior []core.SchemaField, pairwise bool) core.DiffResult {
	if pairwise {
		prior = nil
	}
	cur, prev := fieldpath.Normalize(current, prior)

	res := core.DiffResult{Rows: make([]core.FieldDiffRow, 0, len(cur)+len(prev))}
	if prior == nil {
		for _, e := range cur {
			res.Rows = append(res.Rows, newRow(e, core.FieldUnchanged, nil))
		}
		resolveParents(res.Rows)
		return res
	}

	i, j := 0, 0
	for i < len(cur) || j < len(prev) {
		var c int
		switch {
		case i >= len(cur):
			c = 1
		case j >= len(prev):
			c = -1
		default:
			c = fieldpath.CompareEntries(cur[i], prev[j])
		}

		switch {
		case c < 0:
			res.Rows = append(res.Rows, newRow(cur[i], core.FieldAdded, nil))
			res.Summary.Added++
			i++
		case c > 0:
			row := newRow(prev[j], core.FieldRemoved, &prev[j].Field)
			row.Historical = true
			res.Rows = append(res.Rows, row)
			res.Summary.Removed++
			j++
		default:
			status := core.FieldUnchanged
			if cur[i].Field.Description != prev[j].Field.Description {
				status = core.FieldDescriptionUpdated
				res.Summary.Updated++
			}
			res.Rows = append(res.Rows, newRow(cur[i], status, &prev[j].Field))
			i++
			j++
		}
	}
	resolveParents(res.Rows)
	return res
}

// resolveParents points each row at its nearest ancestor that is itself a
// row, skipping intermediate levels the schema does not list.
func resolveParents(rows []core.FieldDiffRow) {
	present := make(map[string]bool, 2*len(rows))
	for _, r := range rows {
		present[r.Key] = true
		present[fieldpath.Parse(r.Field.Path).Key()] = true
	}
	for i := range rows {
		p := rows[i].ParentPath
		for p != "" && !present[p] {
			p = fieldpath.Parent(p)
		}
		rows[i].ParentPath = p
	}
}

func newRow(e fieldpath.Entry, status core.FieldStatus, prior *core.SchemaField) core.FieldDiffRow {
	row := core.FieldDiffRow{
		Field:      e.Field,
		Status:     status,
		Key:        e.Key,
		Depth:      fieldpath.Depth(e.Field.Path),
		ParentPath: fieldpath.Parent(e.Field.Path),
	}
	if prior != nil {
		p := *prior
		row.Prior = &p
	}
	return row
}

// Lines renders the summary as display sentences. Zero counts are omitted.
func Lines(s core.DiffSummary) []string {
	var out []string
	if s.Added > 0 {
		out = append(out, fmt.Sprintf("%d %s %s added", s.Added, plural(s.Added, "column", "columns"), plural(s.Added, "was", "were")))
	}
	if s.Removed > 0 {
		out = append(out, fmt.Sprintf("%d %s %s removed", s.Removed, plural(s.Removed, "column", "columns"), plural(s.Removed, "was", "were")))
	}
	if s.Updated > 0 {
		out = append(out, fmt.Sprintf("%d %s %s updated", s.Updated, plural(s.Updated, "description", "descriptions"), plural(s.Updated, "was", "were")))
	}
	return out
}

// Heading describes the compared pair, e.g. "Comparing version 3 to version 2".
// In pairwise mode nothing is compared and only the newer version is named.
func Heading(pair core.VersionPair, pairwise bool) string {
	if pairwise {
		return fmt.Sprintf("Version %d", pair.Newer)
	}
	if pair.Older < 1 {
		return fmt.Sprintf("Version %d (no prior version)", pair.Newer)
	}
	return fmt.Sprintf("Comparing version %d to version %d", pair.Newer, pair.Older)
}

// Counts tallies rows by status.
func Counts(rows []core.FieldDiffRow) map[core.FieldStatus]int {
	out := make(map[core.FieldStatus]int, 4)
	for _, r := range rows {
		out[r.Status]++
	}
	return out
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
