package common

// PageData holds the shell data shared by every page.
type PageData struct {
	Title string
	// UpdatesURL is the long-lived SSE endpoint the page subscribes to on load.
	UpdatesURL string
}
