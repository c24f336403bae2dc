package common

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/leapschema/internal/ui/resources"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

// Page renders the HTML document shell around body.
func Page(data PageData, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var initAttr string
		if data.UpdatesURL != "" {
			initAttr = ` data-init="@get('` + templ.EscapeString(data.UpdatesURL) + `')"`
		}
		if _, err := io.WriteString(w, `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>`+templ.EscapeString(data.Title)+` - LeapSchema</title>
<link rel="stylesheet" href="`+resources.StaticPath("app.css")+`">
<script type="module" src="`+datastarScript+`"></script>
</head>
<body`+initAttr+`>
<header class="topbar"><a href="/">LeapSchema</a></header>
<main>
`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n</main>\n</body>\n</html>\n")
		return err
	})
}

// ErrorBanner renders an error message into the #ui-error slot.
func ErrorBanner(msg string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if msg == "" {
			_, err := io.WriteString(w, `<div id="ui-error"></div>`)
			return err
		}
		_, err := io.WriteString(w, `<div id="ui-error" class="error" role="alert">`+templ.EscapeString(msg)+`</div>`)
		return err
	})
}
