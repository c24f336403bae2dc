package schema

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/leapschema/internal/navigator"
	"github.com/leapstack-labs/leapschema/internal/ui/features/common"
	"github.com/leapstack-labs/leapschema/pkg/core"
	"github.com/leapstack-labs/leapschema/pkg/rawdiff"
)

var esc = templ.EscapeString[string]

// SchemaView renders the #schema-view fragment.
func SchemaView(data ViewData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		r := data.Rendered
		st := r.State

		b.WriteString(`<div id="schema-view" data-signals__ifmissing="{version: 0, field: '', description: '', tags: ''}">`)
		b.WriteString("\n")
		if err := common.ErrorBanner(bannerText(data)).Render(ctx, &b); err != nil {
			return err
		}

		fmt.Fprintf(&b, "\n<h2 class=\"heading\">%s</h2>\n", esc(r.Heading))
		writeToolbar(&b, data)

		if len(r.SummaryLines) > 0 {
			b.WriteString(`<ul class="summary">`)
			for _, line := range r.SummaryLines {
				fmt.Fprintf(&b, "<li>%s</li>", esc(line))
			}
			b.WriteString("</ul>\n")
		}

		if st.Mode == navigator.ModeRaw {
			writeRaw(&b, r.Raw)
		} else {
			writeTable(&b, r.Rows)
			if r.Editable {
				writeEditForm(&b, data)
			}
		}

		b.WriteString("</div>")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// Page renders the full schema page body.
func Page(data ViewData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, "<h1>%s</h1>\n<p class=\"meta\">%s</p>\n",
			esc(data.Rendered.URN), versionCount(len(data.Versions))); err != nil {
			return err
		}
		return SchemaView(data).Render(ctx, w)
	})
}

func bannerText(data ViewData) string {
	if data.Error != "" {
		return data.Error
	}
	if err := data.Rendered.State.Err; err != nil {
		return err.Error()
	}
	return ""
}

func post(base, action string) string {
	return "@post('" + base + "/" + action + "')"
}

func writeToolbar(b *strings.Builder, data ViewData) {
	st := data.Rendered.State
	base := esc(data.BasePath)

	b.WriteString(`<div class="toolbar">`)
	fmt.Fprintf(b, `<span class="phase">%s</span>`, esc(string(st.Phase)))
	if st.Status == navigator.StatusLoading {
		b.WriteString(`<span class="loading">loading…</span>`)
	}

	if st.HistoryEnabled {
		b.WriteString(`<span class="versions">`)
		for _, vi := range data.Versions {
			class := ""
			if vi.Version == st.Selected {
				class = ` class="selected"`
			}
			fmt.Fprintf(b, `<button%s data-on:click="$version = %d; %s">%s</button>`,
				class, vi.Version, post(base, "version"), esc(common.VersionLabel(vi.Version)))
		}
		b.WriteString(`</span>`)
		fmt.Fprintf(b, `<button data-on:click="%s">Back to live</button>`, post(base, "back"))
	} else {
		fmt.Fprintf(b, `<button data-on:click="%s">Version history</button>`, post(base, "history"))
	}

	if st.Mode == navigator.ModeRaw {
		fmt.Fprintf(b, `<button data-on:click="%s">Table</button>`, post(base, "mode"))
	} else if data.Rendered.RawAvailable {
		fmt.Fprintf(b, `<button data-on:click="%s">Raw</button>`, post(base, "mode"))
	}
	b.WriteString("</div>\n")
}

func writeTable(b *strings.Builder, rows []core.FieldDiffRow) {
	b.WriteString(`<table class="fields"><thead><tr><th>Field</th><th>Type</th><th>Status</th><th>Description</th><th>Tags</th></tr></thead><tbody>`)
	for _, row := range rows {
		class := common.StatusClass(row.Status)
		if row.Edit != nil {
			class += " edited"
		}
		fmt.Fprintf(b, `<tr class="%s" data-path="%s">`, class, esc(row.Field.Path))
		fmt.Fprintf(b, `<td style="padding-left: %.1frem"><code>%s</code></td>`, 0.6+float64(row.Depth), esc(row.Field.Path))
		fmt.Fprintf(b, `<td>%s</td>`, esc(row.Field.Type.String()))
		fmt.Fprintf(b, `<td>%s</td>`, esc(common.StatusLabel(row.Status)))
		fmt.Fprintf(b, `<td>%s</td>`, esc(row.EffectiveDescription()))
		b.WriteString(`<td>`)
		for _, tag := range row.EffectiveTags() {
			fmt.Fprintf(b, `<span class="tag">%s</span>`, esc(common.TagLabel(tag)))
		}
		b.WriteString("</td></tr>")
	}
	b.WriteString("</tbody></table>\n")
}

func writeRaw(b *strings.Builder, raw rawdiff.Result) {
	b.WriteString(`<pre class="raw">`)
	if raw.Identical {
		b.WriteString(esc(raw.Text))
		b.WriteString("</pre>\n")
		return
	}
	for _, line := range raw.Lines {
		switch line.Op {
		case rawdiff.OpInsert:
			fmt.Fprintf(b, `<span class="ins">%s%s</span>`, rawdiff.MarkInsert, esc(line.Text))
		case rawdiff.OpDelete:
			fmt.Fprintf(b, `<span class="del">%s%s</span>`, rawdiff.MarkDelete, esc(line.Text))
		default:
			b.WriteString(rawdiff.MarkEqual + esc(line.Text))
		}
		b.WriteString("\n")
	}
	b.WriteString("</pre>\n")
}

func writeEditForm(b *strings.Builder, data ViewData) {
	base := esc(data.BasePath)

	b.WriteString(`<div class="edit-form">`)
	b.WriteString(`<label for="edit-field">Field</label><select id="edit-field" data-bind:field><option value="">choose a field</option>`)
	for _, row := range data.Rendered.Rows {
		if row.Historical || row.Status == core.FieldRemoved {
			continue
		}
		fmt.Fprintf(b, `<option value="%s">%s</option>`, esc(row.Field.Path), esc(row.Field.Path))
	}
	b.WriteString(`</select>`)
	b.WriteString(`<label for="edit-description">Description</label><span><input id="edit-description" data-bind:description>`)
	fmt.Fprintf(b, ` <button data-on:click="%s">Save description</button></span>`, post(base, "fields/description"))
	b.WriteString(`<label for="edit-tags">Tags</label><span><input id="edit-tags" data-bind:tags placeholder="pii, urn:li:tag:Legacy">`)
	fmt.Fprintf(b, ` <button data-on:click="%s">Save tags</button></span>`, post(base, "fields/tags"))
	b.WriteString("</div>\n")
}

func versionCount(n int) string {
	if n == 1 {
		return "1 version"
	}
	return strconv.Itoa(n) + " versions"
}
