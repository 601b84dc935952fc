package model

import (
	"sort"
	"strings"

	"github.com/goliatone/go-wikiform/pkg/itemdata"
	"github.com/goliatone/go-wikiform/pkg/schema"
)

// Input carries everything a form description is derived from.
type Input struct {
	Schema     schema.Schema
	Snapshot   *itemdata.Snapshot
	Mode       schema.Mode
	EntityType string
	ExemplarID string
	TypeValue  string
	TypeLabel  string
	ItemID     string
}

// Builder converts schemas into form descriptions.
type Builder struct {
	opts Options
}

// New creates a Builder with the supplied options.
func New(options Options) *Builder {
	return &Builder{opts: options.withDefaults()}
}

// Build is a pure function of its input. Properties with qualifiers become
// repeatable groups with one entry per existing statement, or a single empty
// entry when there are none.
func (b *Builder) Build(in Input) FormDescription {
	form := FormDescription{
		Mode:       in.Mode,
		EntityType: in.EntityType,
		Title:      b.title(in),
		TypeValue:  in.TypeValue,
		TypeLabel:  in.TypeLabel,
		ItemID:     in.ItemID,
	}
	if in.ExemplarID != "" {
		form.Metadata = map[string]string{"exemplar": in.ExemplarID}
	}

	basic := Section{ID: SectionBasic, Title: b.opts.BasicTitle}
	for _, f := range in.Schema.Basic {
		field := Field{
			Name:     f.ID,
			Label:    f.Label,
			Widget:   f.Kind,
			Required: f.Required,
		}
		if initial := basicInitial(f.ID, in.Snapshot); initial != "" {
			field.Initial = []string{initial}
		}
		basic.Fields = append(basic.Fields, field)
	}
	form.Sections = append(form.Sections, basic)

	if len(in.Schema.Properties) > 0 {
		props := Section{ID: SectionProperties, Title: b.opts.PropertiesTitle}
		for _, p := range in.Schema.Properties {
			props.Fields = append(props.Fields, b.propertyField(p, in.Snapshot.Statements(p.ID)))
		}
		form.Sections = append(form.Sections, props)
	}
	return form
}

func (b *Builder) title(in Input) string {
	if b.opts.Title != "" {
		return b.opts.Title
	}
	name := in.TypeLabel
	if name == "" {
		name = b.opts.Labeler(in.EntityType)
	}
	if name == "" {
		name = in.TypeValue
	}
	if in.Mode == schema.ModeEdit {
		return strings.TrimSpace("Edit " + name)
	}
	return strings.TrimSpace("Create New " + name)
}

func basicInitial(id string, snapshot *itemdata.Snapshot) string {
	if snapshot == nil {
		return ""
	}
	switch id {
	case schema.FieldLabel:
		return snapshot.Label
	case schema.FieldDescription:
		return snapshot.Description
	default:
		return ""
	}
}

func (b *Builder) propertyField(p schema.PropertyDescriptor, statements []itemdata.StatementSnapshot) Field {
	field := Field{
		Name:        p.ID,
		PropertyID:  p.ID,
		Label:       propertyLabel(p.ID, p.Label),
		Description: p.Description,
		Widget:      p.Kind,
		Datatype:    p.Datatype,
		Required:    p.Required,
		Options:     options(p.Values),
	}

	if p.HasQualifiers() {
		field.Group = newGroup(p, statements)
		for _, st := range statements {
			field.Options = ensureOption(field.Options, st.Value)
		}
		return field
	}

	seen := make(map[string]struct{}, len(statements))
	for _, st := range statements {
		value := InitialValue(st.Value, p.Kind)
		if value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		field.Initial = append(field.Initial, value)
		if p.Kind == schema.KindMultiselect {
			field.Options = ensureOption(field.Options, st.Value)
		}
	}
	return field
}

func newGroup(p schema.PropertyDescriptor, statements []itemdata.StatementSnapshot) *Group {
	g := &Group{
		Property:     p.ID,
		QualifierMap: p.QualifierMap.Clone(),
		ValueTypes:   valueTypes(p.Values),
	}
	for _, q := range p.Qualifiers {
		g.Qualifiers = append(g.Qualifiers, Qualifier{
			ID:       q.ID,
			Label:    propertyLabel(q.ID, q.Label),
			Datatype: q.Datatype,
			Widget:   q.Kind,
			Options:  options(q.Values),
		})
	}

	for _, st := range statements {
		entry := GroupEntry{Index: g.NextIndex, State: EntryEmpty, StatementID: st.StatementID}
		g.NextIndex++
		main := InitialValue(st.Value, p.Kind)
		entry = Transition(entry, g.QualifierMap, main, g.ValueTypes[main]...)
		entry = withExistingQualifiers(entry, g, st.Qualifiers)
		g.Entries = append(g.Entries, entry)
	}
	if len(g.Entries) == 0 {
		g.Add()
	}
	return g
}

// withExistingQualifiers reveals qualifiers the statement already carries even
// when the map would not, so editing never hides stored data.
func withExistingQualifiers(entry GroupEntry, g *Group, existing map[string]itemdata.QualifierValue) GroupEntry {
	if len(existing) == 0 {
		return entry
	}
	for id, qv := range existing {
		if _, ok := g.Qualifier(id); !ok {
			continue
		}
		if entry.Qualifiers == nil {
			entry.Qualifiers = make(map[string]string)
		}
		entry.Qualifiers[id] = InitialValue(qv.Value, schema.KindFor(qv.Datatype))
		if !contains(entry.Revealed, id) {
			entry.Revealed = append(entry.Revealed, id)
		}
	}
	sort.Strings(entry.Revealed)
	if len(entry.Revealed) > 0 {
		entry.State = EntryQualifiersRevealed
	}
	return entry
}

func options(values []schema.ValueOption) []Option {
	if len(values) == 0 {
		return nil
	}
	out := make([]Option, 0, len(values))
	for _, v := range values {
		out = append(out, Option{Value: v.ID, Label: v.Label, Types: append([]string(nil), v.Types...)})
	}
	return out
}

func valueTypes(values []schema.ValueOption) map[string][]string {
	var out map[string][]string
	for _, v := range values {
		if len(v.Types) == 0 {
			continue
		}
		if out == nil {
			out = make(map[string][]string)
		}
		out[v.ID] = append([]string(nil), v.Types...)
	}
	return out
}

// ensureOption adds an existing entity value missing from the options so it
// stays selected.
func ensureOption(opts []Option, value itemdata.Value) []Option {
	if !value.IsEntity() {
		return opts
	}
	for _, o := range opts {
		if o.Value == value.ID {
			return opts
		}
	}
	if len(opts) == 0 {
		return opts
	}
	label := value.Label
	if label == "" {
		label = value.ID
	}
	return append(opts, Option{Value: value.ID, Label: label})
}

// InitialValue renders a stored value the way the widget of kind expects it:
// dates as YYYY-MM-DD, coordinates as "lat,lon", quantities without a
// leading plus sign.
func InitialValue(v itemdata.Value, kind schema.Kind) string {
	if v.IsEntity() {
		return v.ID
	}
	switch kind {
	case schema.KindDate:
		return trimDate(v.Literal)
	case schema.KindCoordinates:
		if lat, lon, ok := parsePoint(v.Literal); ok {
			return JoinCoordinate(lat, lon)
		}
		return v.Literal
	case schema.KindNumber:
		return strings.TrimPrefix(v.Literal, "+")
	default:
		return v.Literal
	}
}

func trimDate(raw string) string {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "+")
	if len(s) >= 10 && s[4] == '-' && s[7] == '-' {
		return s[:10]
	}
	return s
}

// parsePoint reads a WKT literal such as "Point(35.2 31.7)", which lists
// longitude first.
func parsePoint(raw string) (string, string, bool) {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, ">"); strings.HasPrefix(s, "<") && idx > 0 {
		s = strings.TrimSpace(s[idx+1:])
	}
	if !strings.HasPrefix(strings.ToLower(s), "point(") || !strings.HasSuffix(s, ")") {
		return "", "", false
	}
	parts := strings.Fields(s[len("point(") : len(s)-1])
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[1], parts[0], true
}

// JoinCoordinate formats a coordinate initial value.
func JoinCoordinate(lat, lon string) string {
	return lat + "," + lon
}

// SplitCoordinate is the inverse of JoinCoordinate.
func SplitCoordinate(v string) (string, string) {
	lat, lon, _ := strings.Cut(v, ",")
	return strings.TrimSpace(lat), strings.TrimSpace(lon)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
