package strategy

import (
	"strings"

	"github.com/goliatone/go-wikiform/pkg/collect"
	"github.com/goliatone/go-wikiform/pkg/entity"
	"github.com/goliatone/go-wikiform/pkg/itemdata"
	"github.com/goliatone/go-wikiform/pkg/schema"
)

// Chain composes strategies. Transforming hooks run in order, each seeing the
// previous output. Overrides (required, labels, order) take the last answer
// given. A property is shown only when every strategy shows it, and
// violations are concatenated.
func Chain(strategies ...Strategy) Strategy {
	var names []string
	for _, s := range strategies {
		if s.Name != "" {
			names = append(names, s.Name)
		}
	}
	list := append([]Strategy(nil), strategies...)

	return Strategy{
		Name: strings.Join(names, "+"),
		CustomizeSchema: func(s schema.Schema, snapshot *itemdata.Snapshot) schema.Schema {
			for _, st := range list {
				if st.CustomizeSchema != nil {
					s = st.CustomizeSchema(s, snapshot)
				}
			}
			return s
		},
		ProcessSnapshot: func(snapshot itemdata.Snapshot) itemdata.Snapshot {
			for _, st := range list {
				snapshot = st.Snapshot(snapshot)
			}
			return snapshot
		},
		ShouldShowProperty: func(propertyID string, mode schema.Mode) bool {
			for _, st := range list {
				if st.ShouldShowProperty != nil && !st.ShouldShowProperty(propertyID, mode) {
					return false
				}
			}
			return true
		},
		IsPropertyRequired: func(propertyID string) (bool, bool) {
			required, found := false, false
			for _, st := range list {
				if st.IsPropertyRequired == nil {
					continue
				}
				if r, ok := st.IsPropertyRequired(propertyID); ok {
					required, found = r, true
				}
			}
			return required, found
		},
		FieldOrder: func() []string {
			var order []string
			for _, st := range list {
				if st.FieldOrder == nil {
					continue
				}
				if o := st.FieldOrder(); len(o) > 0 {
					order = o
				}
			}
			return order
		},
		FieldLabel: func(propertyID, label string) (string, bool) {
			found := false
			for _, st := range list {
				if st.FieldLabel == nil {
					continue
				}
				if l, ok := st.FieldLabel(propertyID, label); ok {
					label, found = l, true
				}
			}
			return label, found
		},
		FieldDescription: func(propertyID, description string) (string, bool) {
			found := false
			for _, st := range list {
				if st.FieldDescription == nil {
					continue
				}
				if d, ok := st.FieldDescription(propertyID, description); ok {
					description, found = d, true
				}
			}
			return description, found
		},
		ValidateForm: func(data collect.FormData) []entity.Violation {
			var out []entity.Violation
			for _, st := range list {
				out = append(out, st.Validate(data)...)
			}
			return out
		},
		TransformFormData: func(data collect.FormData) collect.FormData {
			for _, st := range list {
				data = st.Transform(data)
			}
			return data
		},
		CustomizeEntity: func(patch entity.Patch, data collect.FormData) entity.Patch {
			for _, st := range list {
				patch = st.Customize(patch, data)
			}
			return patch
		},
	}
}
