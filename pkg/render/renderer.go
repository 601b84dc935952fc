package render

import (
	"context"

	"github.com/goliatone/go-wikiform/pkg/model"
)

// Renderer converts a FormDescription into a byte representation (HTML,
// JSON, a filled terminal form).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form model.FormDescription, options RenderOptions) ([]byte, error)
}
