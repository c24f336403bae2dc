// Package rawdiff renders and diffs the serialized raw form of a schema.
package rawdiff

import (
	"bytes"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pmezard/go-difflib/difflib"
)

// Line markers used in rendered diffs.
const (
	MarkInsert = "+ "
	MarkDelete = "- "
	MarkEqual  = "  "
)

// Op is the kind of a diff line.
type Op byte

// Diff line kinds.
const (
	OpEqual  Op = ' '
	OpInsert Op = '+'
	OpDelete Op = '-'
)

// Line is one line of a diff.
type Line struct {
	Op   Op
	Text string
}

// Result is the display output of the raw view.
type Result struct {
	// Text is the display text. For diffs every line carries a marker.
	Text string
	// Identical is true when both sides are equal after normalization.
	Identical bool
	Inserted  int
	Deleted   int
	Lines     []Line
}

// Render pretty-prints raw as two-space indented JSON when it parses,
// otherwise it returns raw unchanged.
func Render(raw string) string {
	src := []byte(strings.TrimSpace(raw))
	if len(src) == 0 || !json.Valid(src) {
		return raw
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, src, "", "  "); err != nil {
		return raw
	}
	return buf.String()
}

// View returns the raw view for the current raw form. When a version pair
// is active the result is a diff against prior; otherwise it is the rendered
// current form alone.
func View(current, prior string, pairActive bool) Result {
	if !pairActive {
		text := Render(current)
		return Result{Text: text, Identical: true, Lines: equalLines(text)}
	}
	return Diff(prior, current)
}

// Diff computes a line diff from prior to current. Both sides are rendered
// first so formatting differences in JSON do not show up as changes.
func Diff(prior, current string) Result {
	a := splitLines(Render(prior))
	b := splitLines(Render(current))

	res := Result{}
	m := difflib.NewMatcherWithJunk(a, b, false, nil)
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'e':
			for _, l := range a[op.I1:op.I2] {
				res.Lines = append(res.Lines, Line{OpEqual, l})
			}
		case 'd':
			res.Lines = appendRange(res.Lines, OpDelete, a[op.I1:op.I2])
		case 'i':
			res.Lines = appendRange(res.Lines, OpInsert, b[op.J1:op.J2])
		case 'r':
			res.Lines = appendRange(res.Lines, OpDelete, a[op.I1:op.I2])
			res.Lines = appendRange(res.Lines, OpInsert, b[op.J1:op.J2])
		}
	}

	for _, l := range res.Lines {
		switch l.Op {
		case OpInsert:
			res.Inserted++
		case OpDelete:
			res.Deleted++
		}
	}
	res.Identical = res.Inserted == 0 && res.Deleted == 0

	if res.Identical {
		res.Text = strings.Join(b, "\n")
	} else {
		res.Text = Format(res.Lines)
	}
	return res
}

// Format joins diff lines with their markers.
func Format(lines []Line) string {
	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		switch l.Op {
		case OpInsert:
			sb.WriteString(MarkInsert)
		case OpDelete:
			sb.WriteString(MarkDelete)
		default:
			sb.WriteString(MarkEqual)
		}
		sb.WriteString(l.Text)
	}
	return sb.String()
}

// Unified returns a unified diff between the rendered forms of prior and
// current, with the given number of context lines.
func Unified(prior, current, fromLabel, toLabel string, context int) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(Render(prior)),
		B:        difflib.SplitLines(Render(current)),
		FromFile: fromLabel,
		ToFile:   toLabel,
		Context:  context,
	})
}

func appendRange(dst []Line, op Op, src []string) []Line {
	for _, l := range src {
		dst = append(dst, Line{op, l})
	}
	return dst
}

func equalLines(text string) []Line {
	return appendRange(nil, OpEqual, splitLines(text))
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}
