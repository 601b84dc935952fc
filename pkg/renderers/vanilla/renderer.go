package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goliatone/go-wikiform/pkg/model"
	"github.com/goliatone/go-wikiform/pkg/render"
	rendertemplate "github.com/goliatone/go-wikiform/pkg/render/template"
	gotemplate "github.com/goliatone/go-wikiform/pkg/render/template/gotemplate"
	"github.com/goliatone/go-wikiform/pkg/renderers/vanilla/components"
)

// Name is the registry name of the HTML renderer.
const Name = "vanilla"

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	templateFuncs    map[string]any
	registry         *components.Registry
	overrides        map[string]string
	assetsPrefix     string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithTemplateFuncs exposes extra helpers to every template.
func WithTemplateFuncs(funcs map[string]any) Option {
	return func(cfg *config) {
		if len(funcs) == 0 {
			return
		}
		if cfg.templateFuncs == nil {
			cfg.templateFuncs = make(map[string]any, len(funcs))
		}
		for name, fn := range funcs {
			cfg.templateFuncs[name] = fn
		}
	}
}

// WithComponentRegistry replaces the default component registry.
func WithComponentRegistry(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.registry = registry
		}
	}
}

// WithComponentOverride renders the field at path, or every field of a
// widget kind, with the named component.
func WithComponentOverride(pathOrWidget, component string) Option {
	return func(cfg *config) {
		pathOrWidget = strings.TrimSpace(pathOrWidget)
		if pathOrWidget == "" || component == "" {
			return
		}
		if cfg.overrides == nil {
			cfg.overrides = make(map[string]string)
		}
		cfg.overrides[pathOrWidget] = component
	}
}

// WithAssetsPrefix links the stylesheet and runtime script from prefix (for
// example "/assets") instead of inlining them into every page.
func WithAssetsPrefix(prefix string) Option {
	return func(cfg *config) {
		cfg.assetsPrefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	}
}

// Renderer renders a form description as a self-contained HTML form.
type Renderer struct {
	templates    rendertemplate.TemplateRenderer
	registry     *components.Registry
	overrides    map[string]string
	assetsPrefix string
}

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.registry == nil {
		cfg.registry = components.NewDefaultRegistry()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(cfg.templateFS, gotemplate.WithFuncs(cfg.templateFuncs))
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{
		templates:    renderer,
		registry:     cfg.registry,
		overrides:    cfg.overrides,
		assetsPrefix: cfg.assetsPrefix,
	}, nil
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

type sectionView struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	HTML  string `json:"html"`
}

type scriptView struct {
	Src    string `json:"src,omitempty"`
	Inline string `json:"inline,omitempty"`
	Defer  bool   `json:"defer"`
}

type hiddenView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Render writes the form. Submitted values, a subset and translations from
// options are applied to a copy; the caller's description is not modified.
func (r *Renderer) Render(ctx context.Context, form model.FormDescription, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	form = form.Clone()
	render.ApplyValues(&form, options.Values)
	render.ApplySubset(&form, options.Subset)
	render.LocalizeForm(&form, options)

	mapping := render.MapErrorPayload(form, options.Errors)
	formErrors := render.MergeFormErrors(mapping.Form, options.FormErrors...)

	fields := newComponentRenderer(r.templates, r.registry, r.overrides, mapping.Fields)
	sections := make([]sectionView, 0, len(form.Sections))
	for _, section := range form.Sections {
		var body strings.Builder
		for _, field := range section.Fields {
			markup, err := fields.render(field)
			if err != nil {
				return nil, fmt.Errorf("vanilla renderer: %w", err)
			}
			body.WriteString(markup)
		}
		sections = append(sections, sectionView{ID: section.ID, Title: section.Title, HTML: body.String()})
	}

	stylesheets, scripts := fields.assets()
	payload := map[string]any{
		"form":        form,
		"classes":     chromeClasses(),
		"action":      options.Action,
		"hidden":      hiddenViews(options.Hidden),
		"formErrors":  formErrors,
		"sections":    sections,
		"submitLabel": render.SubmitLabel(form),
		"stylesheets": r.stylesheetLinks(stylesheets),
		"scripts":     r.scriptViews(scripts),
		"translate":   render.ChromeTranslator(options),
	}
	if r.assetsPrefix == "" {
		payload["inlineStyles"] = readAsset(StylesheetName)
	}

	result, err := r.templates.RenderTemplate("templates/form.tmpl", payload)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(result), nil
}

func hiddenViews(hidden map[string]string) []hiddenView {
	sorted := render.SortedHiddenFields(hidden)
	out := make([]hiddenView, 0, len(sorted))
	for _, h := range sorted {
		out = append(out, hiddenView{Name: h.Name, Value: h.Value})
	}
	return out
}

func (r *Renderer) stylesheetLinks(extra []string) []string {
	var out []string
	if r.assetsPrefix != "" {
		out = append(out, r.assetsPrefix+"/"+StylesheetName)
	}
	for _, href := range extra {
		out = append(out, r.assetURL(href))
	}
	return out
}

func (r *Renderer) scriptViews(scripts []components.Script) []scriptView {
	out := make([]scriptView, 0, len(scripts))
	for _, s := range scripts {
		switch {
		case s.Inline != "":
			out = append(out, scriptView{Inline: s.Inline})
		case r.assetsPrefix == "":
			if inline := readAsset(s.Src); inline != "" {
				out = append(out, scriptView{Inline: inline})
				continue
			}
			out = append(out, scriptView{Src: s.Src, Defer: s.Defer})
		default:
			out = append(out, scriptView{Src: r.assetURL(s.Src), Defer: s.Defer})
		}
	}
	return out
}

func (r *Renderer) assetURL(href string) string {
	if r.assetsPrefix == "" || strings.HasPrefix(href, "/") || strings.Contains(href, "://") {
		return href
	}
	return r.assetsPrefix + "/" + href
}
