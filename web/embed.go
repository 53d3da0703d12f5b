package web

import (
	"embed"
	"io/fs"
)

// Templates holds page layouts, partials and the PDF report templates.
//
//go:embed templates
var Templates embed.FS

//go:embed static
var static embed.FS

// Static returns the embedded assets rooted at the static directory, ready
// to be served under /static/.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
