package template

// TemplateRenderer is the engine contract the HTML renderer depends on. name
// is a path inside the engine's template source.
type TemplateRenderer interface {
	RenderTemplate(name string, data any) (string, error)
}
