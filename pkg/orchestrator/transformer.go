package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-wikiform/pkg/model"
)

// Transformer edits a built form before it is rendered.
type Transformer interface {
	Transform(ctx context.Context, form *model.FormDescription) error
}

// TransformerFunc adapts a function to Transformer.
type TransformerFunc func(ctx context.Context, form *model.FormDescription) error

func (fn TransformerFunc) Transform(ctx context.Context, form *model.FormDescription) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, form)
}

// AnyEntityType keys the preset applied to every form, before the preset of
// the form's own entity type.
const AnyEntityType = "*"

// PresetTransformer relabels forms from a YAML (or JSON) document keyed by
// entity type:
//
//	"*":
//	  metadata: {actions.submit: Save}
//	Archaeological_Site:
//	  title: Register a site
//	  sections: {properties: Site details}
//	  fields:
//	    P80: {label: Inscription, required: true}
//
// Field patches name form paths. Paths the form lacks are skipped: an
// exemplar change can drop a property without breaking the preset.
type PresetTransformer struct {
	presets map[string]formPreset
}

type formPreset struct {
	Title    string                 `yaml:"title"`
	Metadata map[string]string      `yaml:"metadata"`
	Sections map[string]string      `yaml:"sections"`
	Fields   map[string]fieldPreset `yaml:"fields"`
}

type fieldPreset struct {
	Label       string            `yaml:"label"`
	Description string            `yaml:"description"`
	Required    *bool             `yaml:"required"`
	Metadata    map[string]string `yaml:"metadata"`
}

// NewPresetTransformer parses a preset document.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset: document is empty")
	}
	var presets map[string]formPreset
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("preset: parse: %w", err)
	}
	return &PresetTransformer{presets: presets}, nil
}

// LoadPresetTransformer reads a preset document from fsys.
func LoadPresetTransformer(fsys fs.FS, path string) (*PresetTransformer, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

func (t *PresetTransformer) Transform(ctx context.Context, form *model.FormDescription) error {
	if form == nil {
		return errors.New("preset: form is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, key := range []string{AnyEntityType, form.EntityType} {
		if p, ok := t.presets[key]; ok {
			p.apply(form)
		}
	}
	return nil
}

func (p formPreset) apply(form *model.FormDescription) {
	if p.Title != "" {
		form.Title = p.Title
	}
	form.Metadata = mergeMetadata(form.Metadata, p.Metadata)
	for id, title := range p.Sections {
		if s, ok := form.Section(id); ok && title != "" {
			s.Title = title
		}
	}
	for path, patch := range p.Fields {
		f, ok := form.Field(path)
		if !ok {
			continue
		}
		if patch.Label != "" {
			f.Label = patch.Label
		}
		if patch.Description != "" {
			f.Description = patch.Description
		}
		if patch.Required != nil {
			f.Required = *patch.Required
		}
		f.Metadata = mergeMetadata(f.Metadata, patch.Metadata)
	}
}

func mergeMetadata(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	maps.Copy(dst, src)
	return dst
}
