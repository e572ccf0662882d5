package formportal

import (
	"io/fs"

	"github.com/goliatone/go-formportal/pkg/renderers/vanilla"
)

// EmbeddedTemplates exposes the built-in HTML templates so callers can reuse
// or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}

// EmbeddedAssets exposes the built-in stylesheet for callers that serve it
// separately and render with vanilla.WithStylesheetURL.
func EmbeddedAssets() fs.FS {
	return vanilla.AssetsFS()
}
