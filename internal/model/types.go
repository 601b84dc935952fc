package model

import (
	"fmt"
	"strconv"

	"github.com/goliatone/go-wikiform/pkg/schema"
	"github.com/goliatone/go-wikiform/pkg/wikibase"
)

// Section identifiers.
const (
	SectionBasic      = "basic"
	SectionProperties = "properties"
)

// Option is one choice of a select widget.
type Option struct {
	Value string   `json:"value"`
	Label string   `json:"label"`
	Types []string `json:"types,omitempty"`
}

// Qualifier is a qualifier input offered inside a group entry.
type Qualifier struct {
	ID       string            `json:"id"`
	Label    string            `json:"label"`
	Datatype wikibase.Datatype `json:"datatype"`
	Widget   schema.Kind       `json:"widget"`
	Options  []Option          `json:"options,omitempty"`
}

// EntryState tracks whether an entry shows qualifier inputs.
type EntryState string

const (
	EntryEmpty              EntryState = "empty"
	EntryQualifiersRevealed EntryState = "qualifiers-revealed"
)

// GroupEntry is one repeatable value of a qualifier-bearing property.
type GroupEntry struct {
	Index       int               `json:"index"`
	Main        string            `json:"main,omitempty"`
	Qualifiers  map[string]string `json:"qualifiers,omitempty"`
	State       EntryState        `json:"state"`
	Revealed    []string          `json:"revealed,omitempty"`
	StatementID string            `json:"statementId,omitempty"`
}

// Group holds the repeatable entries of a property with qualifiers.
type Group struct {
	Property     string              `json:"property"`
	Qualifiers   []Qualifier         `json:"qualifiers"`
	QualifierMap schema.QualifierMap `json:"qualifierMap,omitempty"`
	Entries      []GroupEntry        `json:"entries"`
	ValueTypes   map[string][]string `json:"valueTypes,omitempty"`
	NextIndex    int                 `json:"nextIndex"`
}

// Field is one input of the form. Name is the form path the collector reads
// back: "label", "P80", or the "P93.<index>.value" family for groups.
type Field struct {
	Name        string            `json:"name"`
	PropertyID  string            `json:"propertyId,omitempty"`
	Label       string            `json:"label"`
	Description string            `json:"description,omitempty"`
	Widget      schema.Kind       `json:"widget"`
	Datatype    wikibase.Datatype `json:"datatype,omitempty"`
	Required    bool              `json:"required"`
	Options     []Option          `json:"options,omitempty"`
	Initial     []string          `json:"initial,omitempty"`
	Group       *Group            `json:"group,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Section groups fields under a heading.
type Section struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// FormDescription is the declarative form renderers consume.
type FormDescription struct {
	Mode       schema.Mode       `json:"mode"`
	EntityType string            `json:"entityType,omitempty"`
	Title      string            `json:"title"`
	TypeValue  string            `json:"typeValue,omitempty"`
	TypeLabel  string            `json:"typeLabel,omitempty"`
	ItemID     string            `json:"itemId,omitempty"`
	Sections   []Section         `json:"sections"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Field returns a pointer to the field named name so decorators can edit it
// in place.
func (f *FormDescription) Field(name string) (*Field, bool) {
	for si := range f.Sections {
		for fi := range f.Sections[si].Fields {
			if f.Sections[si].Fields[fi].Name == name {
				return &f.Sections[si].Fields[fi], true
			}
		}
	}
	return nil, false
}

// Fields returns every field in section order.
func (f FormDescription) Fields() []Field {
	var out []Field
	for _, s := range f.Sections {
		out = append(out, s.Fields...)
	}
	return out
}

// Section returns a pointer to the section with id.
func (f *FormDescription) Section(id string) (*Section, bool) {
	for i := range f.Sections {
		if f.Sections[i].ID == id {
			return &f.Sections[i], true
		}
	}
	return nil, false
}

// ValuePath is the form path of a group entry's main value.
func ValuePath(property string, index int) string {
	return EntryPath(property, index) + ".value"
}

// QualifierPath is the form path of a qualifier inside a group entry.
func QualifierPath(property string, index int, qualifier string) string {
	return EntryPath(property, index) + ".qualifier." + qualifier
}

// StatementPath is the form path carrying an entry's existing statement id.
func StatementPath(property string, index int) string {
	return EntryPath(property, index) + ".statement"
}

// EntryPath is the common prefix of a group entry's inputs.
func EntryPath(property string, index int) string {
	return property + "." + strconv.Itoa(index)
}

// LatPath and LonPath name the halves of a coordinate input rooted at base.
func LatPath(base string) string { return base + ".lat" }

// LonPath names the longitude half of a coordinate input rooted at base.
func LonPath(base string) string { return base + ".lon" }

// Transition applies a main-value change to entry. A value whose lookup
// yields qualifier ids reveals them; clearing the value or choosing one with
// no mapping returns the entry to EntryEmpty. Qualifier values for ids that
// stay revealed are kept.
func Transition(entry GroupEntry, qmap schema.QualifierMap, value string, types ...string) GroupEntry {
	entry.Main = value
	if value == "" {
		entry.State = EntryEmpty
		entry.Revealed = nil
		entry.Qualifiers = nil
		return entry
	}
	revealed := qmap.Lookup(value, types...)
	if len(revealed) == 0 {
		entry.State = EntryEmpty
		entry.Revealed = nil
		entry.Qualifiers = nil
		return entry
	}
	entry.State = EntryQualifiersRevealed
	entry.Revealed = revealed
	if entry.Qualifiers != nil {
		kept := make(map[string]string)
		for _, id := range revealed {
			if v, ok := entry.Qualifiers[id]; ok {
				kept[id] = v
			}
		}
		if len(kept) == 0 {
			kept = nil
		}
		entry.Qualifiers = kept
	}
	return entry
}

// Select sets the main value of the entry at index, resolving the value's
// types from the property's options. Extra types cover custom values typed
// by the user. Sibling entries are untouched.
func (g *Group) Select(index int, value string, extraTypes ...string) (GroupEntry, error) {
	pos := g.position(index)
	if pos < 0 {
		return GroupEntry{}, fmt.Errorf("model: group %s has no entry %d", g.Property, index)
	}
	types := append(append([]string(nil), g.ValueTypes[value]...), extraTypes...)
	g.Entries[pos] = Transition(g.Entries[pos], g.QualifierMap, value, types...)
	return g.Entries[pos], nil
}

// Add appends an empty entry with the next free index.
func (g *Group) Add() GroupEntry {
	entry := GroupEntry{Index: g.NextIndex, State: EntryEmpty}
	g.NextIndex++
	g.Entries = append(g.Entries, entry)
	return entry
}

// Remove drops the entry with index.
func (g *Group) Remove(index int) error {
	pos := g.position(index)
	if pos < 0 {
		return fmt.Errorf("model: group %s has no entry %d", g.Property, index)
	}
	g.Entries = append(g.Entries[:pos], g.Entries[pos+1:]...)
	return nil
}

// Entry returns the entry with index.
func (g *Group) Entry(index int) (GroupEntry, bool) {
	pos := g.position(index)
	if pos < 0 {
		return GroupEntry{}, false
	}
	return g.Entries[pos], true
}

// Qualifier looks up a qualifier input by id.
func (g *Group) Qualifier(id string) (Qualifier, bool) {
	for _, q := range g.Qualifiers {
		if q.ID == id {
			return q, true
		}
	}
	return Qualifier{}, false
}

func (g *Group) position(index int) int {
	for i, e := range g.Entries {
		if e.Index == index {
			return i
		}
	}
	return -1
}
