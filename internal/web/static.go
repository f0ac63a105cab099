package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFiles embed.FS

// staticHandler serves /static/ from dir when set, otherwise from the
// assets compiled into the binary
func staticHandler(dir string) http.Handler {
	if dir != "" {
		return http.StripPrefix("/static/", http.FileServer(http.Dir(dir)))
	}
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
