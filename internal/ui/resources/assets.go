// Package resources serves the UI's static assets.
//
// Release builds embed static/; building with -tags dev reads the files from
// the source tree instead so stylesheet edits show without a rebuild.
package resources

import (
	"io/fs"
	"net/http"
)

// StaticDirectoryPath is the path to static assets from the project root.
const StaticDirectoryPath = "internal/ui/resources/static"

// URLPrefix is where the router mounts Handler.
const URLPrefix = "/static/"

// StaticPath returns the URL path for a static asset.
func StaticPath(name string) string {
	return URLPrefix + name
}

func serveFS(fsys fs.FS, cacheControl string) http.Handler {
	files := http.StripPrefix(URLPrefix, http.FileServer(http.FS(fsys)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", cacheControl)
		files.ServeHTTP(w, r)
	})
}
