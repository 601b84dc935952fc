package components

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-wikiform/pkg/model"
	rendertemplate "github.com/goliatone/go-wikiform/pkg/render/template"
	"github.com/goliatone/go-wikiform/pkg/schema"
)

// Renderer writes the control markup of one field into buf. Labels,
// descriptions and error text are added around it by the caller.
type Renderer func(buf *bytes.Buffer, field model.Field, data ComponentData) error

// ComponentData carries helpers and per-field state for component renderers.
type ComponentData struct {
	Template rendertemplate.TemplateRenderer
	// RenderChild renders a nested field (group entry values and qualifiers)
	// with the full field chrome.
	RenderChild func(field model.Field) (string, error)
	// Invalid is set when the field path has validation errors.
	Invalid bool
	Config  map[string]any
}

// Script is JavaScript emitted once per page when any field uses the
// component.
type Script struct {
	Src    string
	Inline string
	Defer  bool
}

// Descriptor describes one component.
type Descriptor struct {
	Name     string
	Renderer Renderer
	// Kinds are the widget kinds the component renders when a field has no
	// override. A kind claimed by several components goes to the last one
	// registered.
	Kinds []schema.Kind
	// Composite components render several controls (lat/lon pairs, entry
	// lists), so their label is a plain caption rather than a <label for>.
	Composite   bool
	Stylesheets []string
	Scripts     []Script
}

// Registry holds the components a vanilla renderer can use, keyed by name,
// and the widget kind bindings used to pick one for a field.
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]Descriptor
	byKind   map[schema.Kind]string
	group    string
	fallback string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byName: make(map[string]Descriptor),
		byKind: make(map[schema.Kind]string),
	}
}

// Register adds or replaces a component and claims its kinds.
func (r *Registry) Register(name string, descriptor Descriptor) error {
	key := normalize(name)
	if key == "" {
		return fmt.Errorf("components: component name is required")
	}
	if descriptor.Renderer == nil {
		return fmt.Errorf("components: component %q has no renderer", key)
	}
	descriptor.Name = key
	descriptor.Kinds = slices.Clone(descriptor.Kinds)
	descriptor.Stylesheets = slices.Clone(descriptor.Stylesheets)
	descriptor.Scripts = slices.Clone(descriptor.Scripts)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[key] = descriptor
	for _, kind := range descriptor.Kinds {
		r.byKind[kind] = key
	}
	return nil
}

// MustRegister is Register for static setup.
func (r *Registry) MustRegister(name string, descriptor Descriptor) {
	if err := r.Register(name, descriptor); err != nil {
		panic(err)
	}
}

// SetGroup names the component used for repeatable statement groups.
func (r *Registry) SetGroup(name string) {
	r.mu.Lock()
	r.group = normalize(name)
	r.mu.Unlock()
}

// SetFallback names the component used for kinds nobody claimed.
func (r *Registry) SetFallback(name string) {
	r.mu.Lock()
	r.fallback = normalize(name)
	r.mu.Unlock()
}

// Descriptor returns a copy of the named component.
func (r *Registry) Descriptor(name string) (Descriptor, bool) {
	r.mu.RLock()
	d, ok := r.byName[normalize(name)]
	r.mu.RUnlock()
	if !ok {
		return Descriptor{}, false
	}
	d.Kinds = slices.Clone(d.Kinds)
	d.Stylesheets = slices.Clone(d.Stylesheets)
	d.Scripts = slices.Clone(d.Scripts)
	return d, true
}

// Resolve picks the component for a field: the group component for
// statement groups, then the kind binding, then the fallback.
func (r *Registry) Resolve(field model.Field) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if field.Group != nil && r.group != "" {
		return r.group
	}
	if name, ok := r.byKind[field.Widget]; ok {
		return name
	}
	return r.fallback
}

// Composite reports whether the named component renders several controls.
func (r *Registry) Composite(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[normalize(name)].Composite
}

// Names lists registered components in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Assets collects the stylesheets and scripts of the named components,
// first occurrence wins. Unknown names are ignored.
func (r *Registry) Assets(names []string) (stylesheets []string, scripts []Script) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for _, name := range names {
		d, ok := r.byName[normalize(name)]
		if !ok {
			continue
		}
		for _, href := range d.Stylesheets {
			if href != "" && !seen["css:"+href] {
				seen["css:"+href] = true
				stylesheets = append(stylesheets, href)
			}
		}
		for _, s := range d.Scripts {
			key := "src:" + s.Src
			if s.Src == "" {
				key = "inline:" + s.Inline
			}
			if !seen[key] {
				seen[key] = true
				scripts = append(scripts, s)
			}
		}
	}
	return stylesheets, scripts
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
