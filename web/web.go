// Package web embeds the HTML templates and static assets so the binary
// runs without a checkout next to it.
package web

import (
	"embed"
	"io/fs"
	"os"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Templates returns the template directory. A non-empty dir overrides the
// embedded copy, which is handy while editing templates locally.
func Templates(dir string) fs.FS {
	if dir != "" {
		return os.DirFS(dir)
	}
	sub, _ := fs.Sub(templatesFS, "templates")
	return sub
}

// Static returns the static asset directory, with the same override rule.
func Static(dir string) fs.FS {
	if dir != "" {
		return os.DirFS(dir)
	}
	sub, _ := fs.Sub(staticFS, "static")
	return sub
}
