package fieldpath

import (
	"slices"

	"github.com/leapstack-labs/leapschema/pkg/core"
)

// Entry is a field paired with the key it is aligned on.
type Entry struct {
	Key   string
	Field core.SchemaField

	// order holds the stripped segments, so colliding fields still sort
	// where their stripped key would. segs breaks ties between them.
	order []Segment
	segs  []Segment
}

// Normalize returns both field lists sorted in canonical order with their
// alignment keys. Prior may be nil. When stripping annotations makes two
// fields of one list collide, those fields fall back to their full path so
// every key stays unique within a list.
func Normalize(current, prior []core.SchemaField) (cur, prev []Entry) {
	return normalizeList(current), normalizeList(prior)
}

func normalizeList(fields []core.SchemaField) []Entry {
	if fields == nil {
		return nil
	}

	entries := make([]Entry, len(fields))
	counts := make(map[string]int, len(fields))
	for i, f := range fields {
		p := Parse(f.Path)
		ks := p.keySegments()
		entries[i] = Entry{Key: p.Key(), Field: f, order: ks, segs: ks}
		counts[entries[i].Key]++
	}

	for i := range entries {
		if counts[entries[i].Key] < 2 {
			continue
		}
		p := Parse(entries[i].Field.Path)
		entries[i].Key = p.Raw
		entries[i].segs = p.Segments
	}

	slices.SortStableFunc(entries, CompareEntries)
	return entries
}

// Keys returns the keys of entries in order.
func Keys(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}

// CompareEntries orders two entries by their stripped paths, then by their
// keys. It returns 0 only when the keys are equal.
func CompareEntries(a, b Entry) int {
	if c := compareSegments(a.order, b.order); c != 0 {
		return c
	}
	return compareSegments(a.segs, b.segs)
}
