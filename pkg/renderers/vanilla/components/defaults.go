package components

import (
	"bytes"
	"fmt"

	"github.com/goliatone/go-wikiform/pkg/model"
	"github.com/goliatone/go-wikiform/pkg/schema"
)

// RuntimeScript is the asset implementing entry add/remove and the
// qualifier reveal rule in the browser.
const RuntimeScript = "wikiform-runtime.js"

// NewDefaultRegistry returns the built-in components, one per widget kind
// family, with statement groups rendered by the group component.
func NewDefaultRegistry() *Registry {
	runtime := []Script{{Src: RuntimeScript, Defer: true}}

	r := New()
	r.MustRegister(NameInput, Descriptor{
		Renderer: templated("input.tmpl"),
		Kinds:    []schema.Kind{schema.KindText, schema.KindURL, schema.KindNumber, schema.KindDate},
	})
	r.MustRegister(NameTextarea, Descriptor{
		Renderer: templated("textarea.tmpl"),
		Kinds:    []schema.Kind{schema.KindTextarea},
	})
	r.MustRegister(NameSelect, Descriptor{
		Renderer: templated("select.tmpl"),
		Kinds:    []schema.Kind{schema.KindMultiselect},
		Scripts:  runtime,
	})
	r.MustRegister(NameCoordinates, Descriptor{
		Renderer:  templated("coordinates.tmpl"),
		Kinds:     []schema.Kind{schema.KindCoordinates},
		Composite: true,
	})
	r.MustRegister(NameItemInput, Descriptor{
		Renderer: templated("item_input.tmpl"),
		Kinds:    []schema.Kind{schema.KindItemInput},
		Scripts:  runtime,
	})
	r.MustRegister(NameGroup, Descriptor{
		Renderer:  groupRenderer,
		Composite: true,
		Scripts:   runtime,
	})
	r.SetGroup(NameGroup)
	r.SetFallback(NameInput)
	return r
}

// templated renders templates/components/<file> with the field's Control.
func templated(file string) Renderer {
	name := "templates/components/" + file
	return func(buf *bytes.Buffer, field model.Field, data ComponentData) error {
		if data.Template == nil {
			return fmt.Errorf("components: no template engine for %s", file)
		}
		out, err := data.Template.RenderTemplate(name, map[string]any{
			"control": NewControl(field, data),
			"config":  data.Config,
		})
		if err != nil {
			return fmt.Errorf("components: render %s: %w", file, err)
		}
		buf.WriteString(out)
		return nil
	}
}
