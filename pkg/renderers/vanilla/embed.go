package vanilla

import (
	"embed"
	"io/fs"
	"path"

	"github.com/goliatone/go-wikiform/pkg/renderers/vanilla/components"
)

// bundle holds the page and component templates under templates/ and the
// browser assets under assets/.
//
//go:embed templates/*.tmpl templates/components/*.tmpl assets/*
var bundle embed.FS

// Asset names served from AssetsFS.
const (
	StylesheetName    = "wikiform.css"
	RuntimeScriptName = components.RuntimeScript
)

// TemplatesFS returns the built-in templates. Names keep their templates/
// prefix, the layout WithTemplatesFS replacements must follow.
func TemplatesFS() fs.FS {
	return bundle
}

// AssetsFS returns the stylesheet and runtime script rooted at the asset
// names, ready for http.FileServerFS.
func AssetsFS() fs.FS {
	assets, err := fs.Sub(bundle, "assets")
	if err != nil {
		panic(err)
	}
	return assets
}

// readAsset returns an asset's text for inlining, or "" when name is not
// bundled.
func readAsset(name string) string {
	data, err := fs.ReadFile(bundle, path.Join("assets", name))
	if err != nil {
		return ""
	}
	return string(data)
}
