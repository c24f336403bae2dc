// Package fieldpath parses, compares, and normalizes nested schema field paths.
//
// A field path is a dot-delimited identifier whose segments may carry bracket
// groups, for example "address.city", "items[0].sku", or the annotated form
// "[version=2.0].[type=record].user.[type=string].name". Annotation groups
// (those containing '=') describe the serialization, not the field, and are
// stripped when computing the comparison key. Index groups such as "[0]" are
// kept.
package fieldpath

import (
	"slices"
	"strings"
)

// Segment is one component of a parsed field path.
type Segment struct {
	Text string
	// Index marks a bracket group such as "[0]" or "[*]".
	Index bool
	// Annotation marks a bracket group such as "[type=string]".
	Annotation bool
}

// Path is a parsed field path.
type Path struct {
	Raw      string
	Segments []Segment
}

// Parse splits a raw path into segments. Dots inside brackets do not split.
// A bracket group that follows a name without a separating dot becomes its
// own segment.
func Parse(raw string) Path {
	p := Path{Raw: raw}
	var cur strings.Builder
	depth := 0

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		p.Segments = append(p.Segments, newSegment(cur.String()))
		cur.Reset()
	}

	for _, r := range raw {
		switch {
		case r == '[' && depth == 0:
			flush()
			depth++
			cur.WriteRune(r)
		case r == '[':
			depth++
			cur.WriteRune(r)
		case r == ']' && depth > 0:
			depth--
			cur.WriteRune(r)
			if depth == 0 {
				flush()
			}
		case r == '.' && depth == 0:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return p
}

func newSegment(text string) Segment {
	s := Segment{Text: text}
	if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
		if strings.Contains(text, "=") {
			s.Annotation = true
		} else {
			s.Index = true
		}
	}
	return s
}

// Key returns the comparison key: the path with annotation segments removed.
// Index segments attach to the preceding name without a dot.
func (p Path) Key() string {
	return join(p.keySegments())
}

func (p Path) keySegments() []Segment {
	out := make([]Segment, 0, len(p.Segments))
	for _, s := range p.Segments {
		if !s.Annotation {
			out = append(out, s)
		}
	}
	return out
}

func join(segs []Segment) string {
	var b strings.Builder
	for i, s := range segs {
		if i > 0 && !s.Index {
			b.WriteByte('.')
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

// Depth returns the nesting level of the path. Top-level names are depth 0;
// index and annotation segments do not add depth.
func Depth(raw string) int {
	n := 0
	for _, s := range Parse(raw).Segments {
		if !s.Index && !s.Annotation {
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return n - 1
}

// Parent returns the key of the enclosing field, or "" for top-level paths.
func Parent(raw string) string {
	segs := Parse(raw).keySegments()
	// Drop the last name along with any index groups trailing it.
	for len(segs) > 0 && segs[len(segs)-1].Index {
		segs = segs[:len(segs)-1]
	}
	if len(segs) == 0 {
		return ""
	}
	segs = segs[:len(segs)-1]
	for len(segs) > 0 && segs[len(segs)-1].Index {
		segs = segs[:len(segs)-1]
	}
	return join(segs)
}

// Compare orders two paths segment by segment. A path sorts before any path
// it is a strict prefix of, so "a" < "a.b" < "a.c" < "ab".
func Compare(a, b string) int {
	return compareSegments(Parse(a).keySegments(), Parse(b).keySegments())
}

func compareSegments(a, b []Segment) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i].Text, b[i].Text); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Sort sorts raw paths in canonical order. The sort is stable.
func Sort(paths []string) {
	slices.SortStableFunc(paths, Compare)
}
