package render

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-wikiform/pkg/model"
)

// JSONRendererName is the registry name of JSONRenderer.
const JSONRendererName = "json"

// JSONRenderer emits the form description itself, after applying submitted
// values, the field subset and translations, so API clients can draw their own
// form.
type JSONRenderer struct {
	// Indent pretty-prints the output when non-empty.
	Indent string
}

// NewJSONRenderer returns a renderer indenting with two spaces.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{Indent: "  "}
}

func (r *JSONRenderer) Name() string {
	return JSONRendererName
}

func (r *JSONRenderer) ContentType() string {
	return "application/json"
}

type jsonPayload struct {
	Form   model.FormDescription `json:"form"`
	Errors map[string][]string   `json:"errors,omitempty"`
	Hidden map[string]string     `json:"hidden,omitempty"`
}

// Render writes {"form": ..., "errors": ..., "hidden": ...}. Errors are keyed
// by the form path they were mapped to; form-level messages use "form".
func (r *JSONRenderer) Render(ctx context.Context, form model.FormDescription, options RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	form = form.Clone()
	ApplyValues(&form, options.Values)
	ApplySubset(&form, options.Subset)
	LocalizeForm(&form, options)

	mapping := MapErrorPayload(form, options.Errors)
	errs := mapping.Fields
	if formErrors := MergeFormErrors(mapping.Form, options.FormErrors...); len(formErrors) > 0 {
		if errs == nil {
			errs = make(map[string][]string)
		}
		errs["form"] = formErrors
	}

	payload := jsonPayload{Form: form, Errors: errs, Hidden: options.Hidden}
	var (
		out []byte
		err error
	)
	if r.Indent != "" {
		out, err = json.MarshalIndent(payload, "", r.Indent)
	} else {
		out, err = json.Marshal(payload)
	}
	if err != nil {
		return nil, fmt.Errorf("render: encode json: %w", err)
	}
	return out, nil
}
