// Package web carries the embedded HTML templates and static assets for the
// rendered pages. Embedding replaces the original write-if-missing asset
// bootstrap: the binary is self-contained.
package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Templates parses the page templates.
func Templates() (*template.Template, error) {
	return template.ParseFS(templatesFS, "templates/*.html")
}

// StaticFS exposes the css/js assets rooted at the static directory.
func StaticFS() (fs.FS, error) {
	return fs.Sub(staticFS, "static")
}
