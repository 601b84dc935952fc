// Package itemdata turns the flat statement dump of an existing item into a
// per-property, per-statement snapshot used to prefill edit forms.
package itemdata

import (
	"sort"

	"github.com/goliatone/go-wikiform/pkg/sparql"
	"github.com/goliatone/go-wikiform/pkg/wikibase"
)

// Value is a statement or qualifier value. Entity values carry ID and Label,
// literal values carry Literal.
type Value struct {
	ID      string `json:"id,omitempty"`
	Label   string `json:"label,omitempty"`
	Literal string `json:"literal,omitempty"`
}

// IsEntity reports whether v references an entity.
func (v Value) IsEntity() bool {
	return v.ID != ""
}

// String returns the entity id or the literal.
func (v Value) String() string {
	if v.ID != "" {
		return v.ID
	}
	return v.Literal
}

// QualifierValue is a qualifier attached to a statement.
type QualifierValue struct {
	Value    Value             `json:"value"`
	Datatype wikibase.Datatype `json:"datatype"`
}

// StatementSnapshot is one existing statement. Qualifiers is nil when the
// statement has none.
type StatementSnapshot struct {
	Value       Value                     `json:"value"`
	Datatype    wikibase.Datatype         `json:"datatype"`
	Qualifiers  map[string]QualifierValue `json:"qualifiers"`
	StatementID string                    `json:"statementId"`
}

// Snapshot is the current state of an item being edited.
type Snapshot struct {
	Label       string                         `json:"label"`
	Description string                         `json:"description"`
	Properties  map[string][]StatementSnapshot `json:"properties"`
}

// Statements returns the statements recorded for propertyID.
func (s *Snapshot) Statements(propertyID string) []StatementSnapshot {
	if s == nil {
		return nil
	}
	return s.Properties[propertyID]
}

// StatementIDs returns the statement ids recorded for propertyID.
func (s *Snapshot) StatementIDs(propertyID string) []string {
	statements := s.Statements(propertyID)
	if len(statements) == 0 {
		return nil
	}
	ids := make([]string, 0, len(statements))
	for _, st := range statements {
		if st.StatementID != "" {
			ids = append(ids, st.StatementID)
		}
	}
	return ids
}

// PropertyIDs returns the snapshot's property ids in sorted order.
func (s *Snapshot) PropertyIDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.Properties))
	for id := range s.Properties {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type group struct {
	property  string
	statement StatementSnapshot
}

// Normalize groups rows by statement URI so the qualifier rows a statement
// expands into collapse back into one StatementSnapshot. Statements keep the
// order they were first seen in per property; a qualifier keeps its first
// value when the dump repeats it.
func Normalize(rows []sparql.Row, labelDesc []sparql.Row) Snapshot {
	snapshot := Snapshot{Properties: make(map[string][]StatementSnapshot)}
	if len(labelDesc) > 0 {
		snapshot.Label = labelDesc[0].Value("label")
		snapshot.Description = labelDesc[0].Value("description")
	}

	var order []string
	groups := make(map[string]*group)

	for _, row := range rows {
		uri := row.Value("statement")
		property := row.ID("property")
		if uri == "" || property == "" {
			continue
		}

		g, ok := groups[uri]
		if !ok {
			datatype := wikibase.ParseDatatype(row.Value("datatype"))
			g = &group{
				property: property,
				statement: StatementSnapshot{
					Value:       valueOf(row, "value", "valueLabel", datatype),
					Datatype:    datatype,
					StatementID: wikibase.StatementID(uri),
				},
			}
			groups[uri] = g
			order = append(order, uri)
		}

		qualifier := row.ID("qualifier")
		if qualifier == "" || !row.Has("qualifierValue") {
			continue
		}
		if g.statement.Qualifiers == nil {
			g.statement.Qualifiers = make(map[string]QualifierValue)
		}
		if _, seen := g.statement.Qualifiers[qualifier]; seen {
			continue
		}
		datatype := wikibase.ParseDatatype(row.Value("qualifierDatatype"))
		g.statement.Qualifiers[qualifier] = QualifierValue{
			Value:    valueOf(row, "qualifierValue", "qualifierValueLabel", datatype),
			Datatype: datatype,
		}
	}

	for _, uri := range order {
		g := groups[uri]
		snapshot.Properties[g.property] = append(snapshot.Properties[g.property], g.statement)
	}
	return snapshot
}

func valueOf(row sparql.Row, name, labelName string, datatype wikibase.Datatype) Value {
	if datatype.IsItem() {
		id := row.ID(name)
		return Value{ID: id, Label: row.Label(labelName, id)}
	}
	return Value{Literal: row.Value(name)}
}
