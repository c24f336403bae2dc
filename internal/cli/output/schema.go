package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FieldRow is one rendered row of a schema comparison.
type FieldRow struct {
	Path        string   `json:"path"`
	Status      string   `json:"status"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Depth       int      `json:"depth"`
	Edited      bool     `json:"edited,omitempty"`
}

// Comparison is the rendered state of a schema view.
type Comparison struct {
	URN      string     `json:"urn"`
	Heading  string     `json:"heading"`
	Mode     string     `json:"mode"`
	Phase    string     `json:"phase"`
	Editable bool       `json:"editable"`
	Rows     []FieldRow `json:"rows,omitempty"`
	Summary  []string   `json:"summary,omitempty"`
	Raw      string     `json:"raw,omitempty"`
}

// VersionInfo is one entry of a version listing.
type VersionInfo struct {
	Version    int    `json:"version"`
	FieldCount int    `json:"field_count"`
	Hash       string `json:"hash"`
	CreatedAt  string `json:"created_at"`
}

// EditInfo is one entry of the overlay payload listing.
type EditInfo struct {
	FieldPath   string   `json:"fieldPath"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

var statusCaser = cases.Title(language.English)

// StatusLabel turns a status identifier such as "descriptionUpdated" into
// a display label ("Description Updated").
func StatusLabel(status string) string {
	var b strings.Builder
	for i, r := range status {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return statusCaser.String(b.String())
}

// Comparison renders a schema comparison in the effective mode.
func (r *Renderer) Comparison(c Comparison) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		return r.JSON(c)
	case ModeMarkdown:
		r.comparisonMarkdown(c)
	default:
		r.comparisonText(c)
	}
	return nil
}

func (r *Renderer) comparisonText(c Comparison) {
	r.Header(1, c.Heading)
	if len(c.Summary) > 0 {
		for _, line := range c.Summary {
			r.Println(r.styles.Info.Render(line))
		}
	}
	r.Println("")

	if c.Mode == "raw" {
		r.rawText(c.Raw)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Field", "Type", "Description", "Tags", "Status"})
	for _, row := range c.Rows {
		t.AppendRow(table.Row{
			strings.Repeat("  ", row.Depth) + lastSegment(row.Path),
			row.Type,
			editedMark(row.Description, row.Edited),
			strings.Join(row.Tags, ", "),
			r.statusText(row.Status),
		})
	}
	t.Render()
	r.Println(r.Muted(fmt.Sprintf("(%d fields, editable: %t)", len(c.Rows), c.Editable)))
}

func (r *Renderer) rawText(raw string) {
	for _, line := range strings.Split(raw, "\n") {
		switch {
		case strings.HasPrefix(line, "+ "):
			r.Println(r.styles.Added.UnsetStrikethrough().Render(line))
		case strings.HasPrefix(line, "- "):
			r.Println(r.styles.Error.UnsetBold().Render(line))
		default:
			r.Println(line)
		}
	}
}

func (r *Renderer) statusText(status string) string {
	label := StatusLabel(status)
	switch status {
	case "added":
		return r.styles.Added.Render(label)
	case "removed":
		return r.styles.Removed.Render(label)
	case "descriptionUpdated":
		return r.styles.Updated.Render(label)
	default:
		return r.styles.Muted.Render(label)
	}
}

func (r *Renderer) comparisonMarkdown(c Comparison) {
	r.Println(FormatHeader(1, c.Heading))
	r.Println("")
	r.Println(FormatKeyValue("Dataset", c.URN))
	r.Println(FormatKeyValue("Editable", fmt.Sprintf("%t", c.Editable)))
	for _, line := range c.Summary {
		r.Println("- " + line)
	}
	r.Println("")

	if c.Mode == "raw" {
		r.Println("```diff")
		r.Println(c.Raw)
		r.Println("```")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(table.Row{"Field", "Type", "Description", "Tags", "Status"})
	for _, row := range c.Rows {
		t.AppendRow(table.Row{
			"`" + row.Path + "`",
			row.Type,
			editedMark(row.Description, row.Edited),
			strings.Join(row.Tags, ", "),
			StatusLabel(row.Status),
		})
	}
	t.RenderMarkdown()
}

// Versions renders a version listing.
func (r *Renderer) Versions(urn string, versions []VersionInfo) error {
	if r.EffectiveMode() == ModeJSON {
		return r.JSON(versions)
	}
	r.Header(1, fmt.Sprintf("Versions of %s (%d total)", urn, len(versions)))

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(table.Row{"Version", "Fields", "Hash", "Created"})
	for _, v := range versions {
		t.AppendRow(table.Row{v.Version, v.FieldCount, shortHash(v.Hash), v.CreatedAt})
	}
	if r.EffectiveMode() == ModeMarkdown {
		t.RenderMarkdown()
		return nil
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}

// Edits renders the overlay payload.
func (r *Renderer) Edits(urn string, edits []EditInfo) error {
	if r.EffectiveMode() == ModeJSON {
		return r.JSON(edits)
	}
	r.Header(1, fmt.Sprintf("Edits for %s (%d fields)", urn, len(edits)))
	if len(edits) == 0 {
		r.Println(r.Muted("(no edits)"))
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(table.Row{"Field", "Description", "Tags"})
	for _, e := range edits {
		desc := "-"
		if e.Description != nil {
			desc = *e.Description
		}
		tags := "-"
		if e.Tags != nil {
			tags = strings.Join(e.Tags, ", ")
		}
		t.AppendRow(table.Row{e.FieldPath, desc, tags})
	}
	if r.EffectiveMode() == ModeMarkdown {
		t.RenderMarkdown()
		return nil
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 && !strings.Contains(path[i:], "]") {
		return path[i+1:]
	}
	return path
}

func editedMark(desc string, edited bool) string {
	if edited {
		return desc + " *"
	}
	return desc
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
