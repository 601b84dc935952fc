package wikiform

import (
	"io/fs"

	"github.com/goliatone/go-wikiform/pkg/renderers/vanilla"
)

// AssetsFS exposes the stylesheet and browser runtime the HTML renderer links
// to when configured with an assets prefix.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(wikiform.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	return vanilla.AssetsFS()
}
