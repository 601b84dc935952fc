package schema

import (
	"sort"

	"github.com/goliatone/go-wikiform/pkg/wikibase"
)

// Mode distinguishes creating a new item from editing an existing one.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeCreate || m == ModeEdit
}

// Kind is the input widget a field renders as.
type Kind string

const (
	KindText        Kind = "text"
	KindTextarea    Kind = "textarea"
	KindURL         Kind = "url"
	KindNumber      Kind = "number"
	KindDate        Kind = "date"
	KindCoordinates Kind = "coordinates"
	KindItemInput   Kind = "item-input"
	KindMultiselect Kind = "multiselect"
)

// KindFor maps a datatype to its default widget. Item properties start as
// free-text item inputs and are promoted to multiselect once values are found.
func KindFor(datatype wikibase.Datatype) Kind {
	switch datatype {
	case wikibase.DatatypeURL:
		return KindURL
	case wikibase.DatatypeQuantity:
		return KindNumber
	case wikibase.DatatypeTime:
		return KindDate
	case wikibase.DatatypeGlobeCoordinate:
		return KindCoordinates
	case wikibase.DatatypeItem:
		return KindItemInput
	default:
		return KindText
	}
}

// Basic field ids.
const (
	FieldLabel       = "label"
	FieldDescription = "description"
)

// Field is one of the always-present basic fields.
type Field struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Kind     Kind   `json:"kind"`
	Required bool   `json:"required"`
}

// BasicFields returns the name and description fields every form starts with.
func BasicFields() []Field {
	return []Field{
		{ID: FieldLabel, Label: "Name", Kind: KindText, Required: true},
		{ID: FieldDescription, Label: "Description", Kind: KindTextarea},
	}
}

// ValueOption is an existing entity offered as a value.
type ValueOption struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Types []string `json:"types,omitempty"`
}

// QualifierDescriptor describes a qualifier seen on the exemplar.
type QualifierDescriptor struct {
	ID       string            `json:"id"`
	Label    string            `json:"label"`
	Datatype wikibase.Datatype `json:"datatype"`
	Kind     Kind              `json:"kind"`
	Values   []ValueOption     `json:"values,omitempty"`
}

// PropertyDescriptor is one property field of the schema.
type PropertyDescriptor struct {
	ID           string                `json:"id"`
	Label        string                `json:"label"`
	Description  string                `json:"description,omitempty"`
	Datatype     wikibase.Datatype     `json:"datatype"`
	Kind         Kind                  `json:"kind"`
	Required     bool                  `json:"required"`
	Values       []ValueOption         `json:"values,omitempty"`
	Qualifiers   []QualifierDescriptor `json:"qualifiers,omitempty"`
	QualifierMap QualifierMap          `json:"qualifierMap,omitempty"`
}

// HasQualifiers reports whether the property renders as a repeatable group.
func (p PropertyDescriptor) HasQualifiers() bool {
	return len(p.Qualifiers) > 0
}

// Qualifier looks up a qualifier descriptor by id.
func (p PropertyDescriptor) Qualifier(id string) (QualifierDescriptor, bool) {
	for _, q := range p.Qualifiers {
		if q.ID == id {
			return q, true
		}
	}
	return QualifierDescriptor{}, false
}

// ValueTypes returns the instance-of types recorded for value id.
func (p PropertyDescriptor) ValueTypes(id string) []string {
	for _, v := range p.Values {
		if v.ID == id {
			return v.Types
		}
	}
	return nil
}

// Schema is the inferred shape of an entity type.
type Schema struct {
	Basic      []Field              `json:"basic"`
	Properties []PropertyDescriptor `json:"properties"`
}

// Property looks up a descriptor by property id.
func (s Schema) Property(id string) (PropertyDescriptor, bool) {
	for _, p := range s.Properties {
		if p.ID == id {
			return p, true
		}
	}
	return PropertyDescriptor{}, false
}

// PropertyIDs returns the property ids in schema order.
func (s Schema) PropertyIDs() []string {
	ids := make([]string, 0, len(s.Properties))
	for _, p := range s.Properties {
		ids = append(ids, p.ID)
	}
	return ids
}

// Clone returns a deep copy so callers can customise a cached schema.
func (s Schema) Clone() Schema {
	out := Schema{
		Basic:      append([]Field(nil), s.Basic...),
		Properties: make([]PropertyDescriptor, len(s.Properties)),
	}
	for i, p := range s.Properties {
		cp := p
		cp.Values = cloneOptions(p.Values)
		if p.Qualifiers != nil {
			cp.Qualifiers = make([]QualifierDescriptor, len(p.Qualifiers))
			for j, q := range p.Qualifiers {
				q.Values = cloneOptions(q.Values)
				cp.Qualifiers[j] = q
			}
		}
		cp.QualifierMap = p.QualifierMap.Clone()
		out.Properties[i] = cp
	}
	return out
}

func cloneOptions(in []ValueOption) []ValueOption {
	if in == nil {
		return nil
	}
	out := make([]ValueOption, len(in))
	for i, v := range in {
		v.Types = append([]string(nil), v.Types...)
		out[i] = v
	}
	return out
}

// QualifierMap maps a main-value key (an instance-of type, or a literal value)
// to the sorted qualifier ids applicable to it.
type QualifierMap map[string][]string

// Add records qualifier id under key, keeping the id list sorted and unique.
func (m QualifierMap) Add(key, id string) {
	m[key] = appendSorted(m[key], id)
}

// Lookup returns the sorted union of qualifier ids registered for value and
// for each of its types. A nil map yields nil.
func (m QualifierMap) Lookup(value string, types ...string) []string {
	if len(m) == 0 {
		return nil
	}
	seen := make(map[string]struct{})
	collect := func(key string) {
		if key == "" {
			return
		}
		for _, id := range m[key] {
			seen[id] = struct{}{}
		}
	}
	collect(value)
	for _, t := range types {
		collect(t)
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Keys returns the map keys in sorted order.
func (m QualifierMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy.
func (m QualifierMap) Clone() QualifierMap {
	if m == nil {
		return nil
	}
	out := make(QualifierMap, len(m))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	return out
}
