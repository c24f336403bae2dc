//go:build dev

package resources

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
)

// sourceStaticDir locates static/ next to this file, independent of the
// working directory the binary runs in.
func sourceStaticDir() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return StaticDirectoryPath
	}
	return filepath.Join(filepath.Dir(filename), "static")
}

// Handler serves static assets straight from the source tree.
func Handler() http.Handler {
	dir := sourceStaticDir()
	slog.Info("static assets served from filesystem", "path", dir)
	return serveFS(os.DirFS(dir), "no-cache")
}
