package home

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/leapschema/internal/ui/features/common"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

// DatasetList renders the #dataset-list fragment.
func DatasetList(datasets []core.DatasetInfo) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<section id="dataset-list">`)
		if len(datasets) == 0 {
			b.WriteString(`<p class="empty">No datasets yet. Import a snapshot with <code>leapschema import</code>.</p>`)
		} else {
			b.WriteString(`<table><thead><tr><th>Dataset</th><th>Platform</th><th>Latest</th></tr></thead><tbody>`)
			for _, d := range datasets {
				fmt.Fprintf(&b, `<tr><td><a href="%s">%s</a></td><td>%s</td><td>%s</td></tr>`,
					templ.EscapeString(common.DatasetPath(d.URN)),
					templ.EscapeString(d.URN),
					templ.EscapeString(d.Platform),
					common.VersionLabel(d.LatestVersion))
			}
			b.WriteString(`</tbody></table>`)
		}
		b.WriteString(`</section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
