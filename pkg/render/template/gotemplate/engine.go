// Package gotemplate renders the HTML renderer's templates with pongo2.
package gotemplate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-wikiform/pkg/render/template"
)

// DefaultExtension is appended to template names without one.
const DefaultExtension = ".tmpl"

// Option configures an Engine.
type Option func(*Engine)

// WithExtension overrides DefaultExtension.
func WithExtension(ext string) Option {
	return func(e *Engine) {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		e.ext = ext
	}
}

// WithFuncs exposes functions to every template as callable globals.
func WithFuncs(funcs map[string]any) Option {
	return func(e *Engine) {
		for name, fn := range funcs {
			name = strings.TrimSpace(name)
			if name == "" || !isFunc(fn) {
				continue
			}
			e.set.Globals[name] = fn
		}
	}
}

// Engine renders templates loaded from an fs.FS. Parsed templates are cached
// by path.
type Engine struct {
	set *pongo2.TemplateSet
	ext string

	mu     sync.RWMutex
	parsed map[string]*pongo2.Template
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New builds an engine over files.
func New(files fs.FS, options ...Option) (*Engine, error) {
	if files == nil {
		return nil, errors.New("gotemplate: template source is required")
	}
	registerFilters()

	set := pongo2.NewSet("wikiform", pongo2.NewFSLoader(files))
	if set.Globals == nil {
		set.Globals = make(pongo2.Context)
	}
	e := &Engine{
		set:    set,
		ext:    DefaultExtension,
		parsed: make(map[string]*pongo2.Template),
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

// RenderTemplate executes the template at name. Map values other than
// functions are flattened through their JSON form, so templates address
// struct fields by their json names.
func (e *Engine) RenderTemplate(name string, data any) (string, error) {
	if !strings.HasSuffix(name, e.ext) {
		name += e.ext
	}
	tmpl, err := e.lookup(name)
	if err != nil {
		return "", err
	}
	ctx, err := viewContext(data)
	if err != nil {
		return "", fmt.Errorf("gotemplate: %s: %w", name, err)
	}
	out, err := tmpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("gotemplate: execute %s: %w", name, err)
	}
	return out, nil
}

func (e *Engine) lookup(name string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.parsed[name]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.parsed[name]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: load %s: %w", name, err)
	}
	e.parsed[name] = tmpl
	return tmpl, nil
}

func viewContext(data any) (pongo2.Context, error) {
	if data == nil {
		return pongo2.Context{}, nil
	}
	values, ok := data.(map[string]any)
	if !ok {
		flat, err := plain(data)
		if err != nil {
			return nil, err
		}
		if values, ok = flat.(map[string]any); !ok {
			return nil, fmt.Errorf("view data must be an object, got %T", data)
		}
	}

	ctx := make(pongo2.Context, len(values))
	for key, value := range values {
		if isFunc(value) {
			ctx[key] = value
			continue
		}
		flat, err := plain(value)
		if err != nil {
			return nil, fmt.Errorf("view data %q: %w", key, err)
		}
		ctx[key] = flat
	}
	return ctx, nil
}

func plain(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, int, float64:
		return v, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func isFunc(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}

// wikiText strips every tag from text that comes from the wiki (labels,
// descriptions, option labels) before it reaches the page.
var wikiText = bluemonday.StrictPolicy()

var filtersOnce sync.Once

func registerFilters() {
	filtersOnce.Do(func() {
		if !pongo2.FilterExists("wikitext") {
			_ = pongo2.RegisterFilter("wikitext", filterWikiText)
		}
	})
}

// filterWikiText returns a safe value: the policy already escapes what it
// keeps, so autoescaping again would double-encode entities.
func filterWikiText(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.IsNil() {
		return pongo2.AsSafeValue(""), nil
	}
	return pongo2.AsSafeValue(strings.TrimSpace(wikiText.Sanitize(in.String()))), nil
}
