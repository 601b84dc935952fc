// Package strategy customizes the pipeline per entity type: schema shaping,
// field labels, extra validation and last-minute patch edits.
package strategy

import (
	"github.com/goliatone/go-wikiform/pkg/collect"
	"github.com/goliatone/go-wikiform/pkg/entity"
	"github.com/goliatone/go-wikiform/pkg/itemdata"
	"github.com/goliatone/go-wikiform/pkg/schema"
)

// FormLevel addresses violations that belong to the whole form.
const FormLevel = "form"

// Strategy is a set of optional hooks. A nil hook leaves its input unchanged.
type Strategy struct {
	Name string

	CustomizeSchema    func(s schema.Schema, snapshot *itemdata.Snapshot) schema.Schema
	ProcessSnapshot    func(snapshot itemdata.Snapshot) itemdata.Snapshot
	ShouldShowProperty func(propertyID string, mode schema.Mode) bool
	// IsPropertyRequired reports an override; ok is false to keep the
	// inferred value.
	IsPropertyRequired func(propertyID string) (required, ok bool)
	FieldOrder         func() []string
	FieldLabel         func(propertyID, label string) (string, bool)
	FieldDescription   func(propertyID, description string) (string, bool)
	ValidateForm       func(data collect.FormData) []entity.Violation
	TransformFormData  func(data collect.FormData) collect.FormData
	CustomizeEntity    func(patch entity.Patch, data collect.FormData) entity.Patch
}

// ApplySchema runs every schema hook in order: customization, visibility,
// required overrides, labels and descriptions, then field order.
func (s Strategy) ApplySchema(in schema.Schema, snapshot *itemdata.Snapshot, mode schema.Mode) schema.Schema {
	out := in.Clone()
	if s.CustomizeSchema != nil {
		out = s.CustomizeSchema(out, snapshot)
	}

	props := out.Properties[:0:0]
	for _, p := range out.Properties {
		if s.ShouldShowProperty != nil && !s.ShouldShowProperty(p.ID, mode) {
			continue
		}
		if s.IsPropertyRequired != nil {
			if required, ok := s.IsPropertyRequired(p.ID); ok {
				p.Required = required
			}
		}
		if s.FieldLabel != nil {
			if label, ok := s.FieldLabel(p.ID, p.Label); ok {
				p.Label = label
			}
		}
		if s.FieldDescription != nil {
			if desc, ok := s.FieldDescription(p.ID, p.Description); ok {
				p.Description = desc
			}
		}
		props = append(props, p)
	}
	out.Properties = props

	if s.FieldOrder != nil {
		out.Properties = reorder(out.Properties, s.FieldOrder())
	}
	return out
}

// Snapshot runs ProcessSnapshot.
func (s Strategy) Snapshot(snapshot itemdata.Snapshot) itemdata.Snapshot {
	if s.ProcessSnapshot == nil {
		return snapshot
	}
	return s.ProcessSnapshot(snapshot)
}

// Validate runs ValidateForm.
func (s Strategy) Validate(data collect.FormData) []entity.Violation {
	if s.ValidateForm == nil {
		return nil
	}
	return s.ValidateForm(data)
}

// Transform runs TransformFormData.
func (s Strategy) Transform(data collect.FormData) collect.FormData {
	if s.TransformFormData == nil {
		return data
	}
	return s.TransformFormData(data)
}

// Customize runs CustomizeEntity.
func (s Strategy) Customize(patch entity.Patch, data collect.FormData) entity.Patch {
	if s.CustomizeEntity == nil {
		return patch
	}
	return s.CustomizeEntity(patch, data)
}

// reorder moves the listed properties to the front in the given order and
// keeps the rest in their original order.
func reorder(props []schema.PropertyDescriptor, order []string) []schema.PropertyDescriptor {
	if len(order) == 0 {
		return props
	}
	index := make(map[string]int, len(props))
	for i, p := range props {
		index[p.ID] = i
	}
	out := make([]schema.PropertyDescriptor, 0, len(props))
	placed := make(map[string]struct{}, len(order))
	for _, id := range order {
		i, ok := index[id]
		if !ok {
			continue
		}
		if _, dup := placed[id]; dup {
			continue
		}
		placed[id] = struct{}{}
		out = append(out, props[i])
	}
	for _, p := range props {
		if _, ok := placed[p.ID]; ok {
			continue
		}
		out = append(out, p)
	}
	return out
}
