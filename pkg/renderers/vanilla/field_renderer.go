package vanilla

import (
	"bytes"
	"fmt"
	"html"
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-wikiform/pkg/model"
	"github.com/goliatone/go-wikiform/pkg/render/template"
	"github.com/goliatone/go-wikiform/pkg/renderers/vanilla/components"
)

// wikiText strips markup from labels and descriptions fetched from the wiki.
// Sanitize also escapes what it keeps.
var wikiText = bluemonday.StrictPolicy()

type componentRenderer struct {
	templates template.TemplateRenderer
	registry  *components.Registry
	overrides map[string]string
	errors    map[string][]string

	usedComponents map[string]struct{}
}

func newComponentRenderer(templates template.TemplateRenderer, registry *components.Registry, overrides map[string]string, errors map[string][]string) *componentRenderer {
	if registry == nil {
		registry = components.NewDefaultRegistry()
	}
	return &componentRenderer{
		templates:      templates,
		registry:       registry,
		overrides:      overrides,
		errors:         errors,
		usedComponents: make(map[string]struct{}),
	}
}

func (r *componentRenderer) render(field model.Field) (string, error) {
	componentName := r.overrideFor(field)
	if componentName == "" {
		componentName = r.registry.Resolve(field)
	}

	descriptor, ok := r.registry.Descriptor(componentName)
	if !ok {
		return "", fmt.Errorf("component %q not registered for field %q", componentName, field.Name)
	}

	messages := r.messagesFor(field)
	data := components.ComponentData{
		Template:    r.templates,
		RenderChild: r.render,
		Invalid:     len(messages) > 0,
	}

	var control bytes.Buffer
	if err := descriptor.Renderer(&control, field, data); err != nil {
		return "", fmt.Errorf("render component %q for field %q: %w", componentName, field.Name, err)
	}

	r.usedComponents[componentName] = struct{}{}

	return buildFieldMarkup(field, componentName, descriptor.Composite, control.String(), messages), nil
}

func (r *componentRenderer) messagesFor(field model.Field) []string {
	var out []string
	for _, path := range errorPaths(field) {
		out = append(out, r.errors[path]...)
	}
	return out
}

func (r *componentRenderer) assets() (stylesheets []string, scripts []components.Script) {
	if r.registry == nil || len(r.usedComponents) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(r.usedComponents))
	for name := range r.usedComponents {
		names = append(names, name)
	}
	slices.Sort(names)
	return r.registry.Assets(names)
}

func (r *componentRenderer) overrideFor(field model.Field) string {
	if len(r.overrides) == 0 {
		return ""
	}
	if value := r.overrides[field.Name]; value != "" {
		return value
	}
	return r.overrides[string(field.Widget)]
}

func buildFieldMarkup(field model.Field, componentName string, composite bool, control string, messages []string) string {
	var builder strings.Builder
	builder.Grow(len(control) + 256)

	controlID := components.ControlID(field.Name)

	builder.WriteString(`<div class="`)
	builder.WriteString(string(ClassField))
	builder.WriteString(`" data-component="`)
	builder.WriteString(html.EscapeString(componentName))
	builder.WriteString(`" data-field="`)
	builder.WriteString(html.EscapeString(field.Name))
	builder.WriteString(`"`)
	if len(messages) > 0 {
		builder.WriteString(` data-invalid`)
	}
	builder.WriteString(">\n")

	if label := strings.TrimSpace(wikiText.Sanitize(field.Label)); label != "" {
		if !composite {
			builder.WriteString(`<label for="`)
			builder.WriteString(html.EscapeString(controlID))
			builder.WriteString(`" class="`)
			builder.WriteString(string(ClassLabel))
			builder.WriteString(`">`)
		} else {
			builder.WriteString(`<span id="`)
			builder.WriteString(html.EscapeString(componentLabelID(field.Name)))
			builder.WriteString(`" class="`)
			builder.WriteString(string(ClassLabel))
			builder.WriteString(`">`)
		}
		builder.WriteString(label)
		if field.Required {
			builder.WriteString(` <span class="`)
			builder.WriteString(string(ClassRequired))
			builder.WriteString(`">*</span>`)
		}
		if !composite {
			builder.WriteString("</label>\n")
		} else {
			builder.WriteString("</span>\n")
		}
	}

	if control = strings.TrimSpace(control); control != "" {
		builder.WriteString(control)
		builder.WriteByte('\n')
	}

	if desc := strings.TrimSpace(wikiText.Sanitize(field.Description)); desc != "" {
		builder.WriteString(`<small class="`)
		builder.WriteString(string(ClassHelp))
		builder.WriteString(`">`)
		builder.WriteString(desc)
		builder.WriteString("</small>\n")
	}

	if len(messages) > 0 {
		builder.WriteString(`<ul class="`)
		builder.WriteString(string(ClassError))
		builder.WriteString(`" id="`)
		builder.WriteString(html.EscapeString(controlID + "-error"))
		builder.WriteString(`" role="alert">`)
		for _, msg := range messages {
			builder.WriteString(`<li>`)
			builder.WriteString(html.EscapeString(msg))
			builder.WriteString(`</li>`)
		}
		builder.WriteString("</ul>\n")
	}

	builder.WriteString("</div>\n")
	return builder.String()
}
