package entity

import (
	"sort"
	"strings"

	"github.com/goliatone/go-wikiform/pkg/collect"
	"github.com/goliatone/go-wikiform/pkg/itemdata"
	"github.com/goliatone/go-wikiform/pkg/model"
	"github.com/goliatone/go-wikiform/pkg/schema"
	"github.com/goliatone/go-wikiform/pkg/wikibase"
)

// Option configures a Builder.
type Option func(*Builder)

// WithLanguage sets the language of labels, descriptions and monolingual
// text. Empty values are ignored.
func WithLanguage(language string) Option {
	return func(b *Builder) {
		if language != "" {
			b.language = language
		}
	}
}

// Builder converts collected form data into patches.
type Builder struct {
	language string
}

// NewBuilder returns a Builder using wikibase.DefaultLanguage unless
// overridden.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{language: wikibase.DefaultLanguage}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(b)
	}
	return b
}

// Build validates data against s and returns the patch. Every violation is
// reported in a single *ValidationError.
//
// In edit mode a stored statement the form still carries unchanged is left
// out of Claims entirely, so its references, units and precision survive.
// A changed statement is re-emitted under its id with the stored
// qualifiers the schema does not know about. Stored statements of covered
// properties the form no longer carries are listed in Patch.Remove.
// Properties outside s are never touched.
func (b *Builder) Build(data collect.FormData, s schema.Schema, session Session) (Patch, error) {
	verr := &ValidationError{}

	label := strings.TrimSpace(data.Label)
	if label == "" {
		verr.Add(schema.FieldLabel, "Name is required")
	}

	patch := Patch{Labels: map[string]Term{b.language: {Language: b.language, Value: label}}}
	if desc := strings.TrimSpace(data.Description); desc != "" {
		patch.Descriptions = map[string]Term{b.language: {Language: b.language, Value: desc}}
	}

	edit := session.Mode == schema.ModeEdit
	if !edit && session.InstanceOf != "" {
		dv, err := ItemValue(session.TypeValue)
		if err != nil {
			verr.Add(session.InstanceOf, describe("Type", err))
		} else {
			patch.Claims = append(patch.Claims, newClaim(session.InstanceOf, dv))
		}
	}

	for _, p := range s.Properties {
		entries := data.Entries(p.ID)
		statements := session.Snapshot.Statements(p.ID)

		if p.ID == session.InstanceOf && session.InstanceOf != "" {
			if !edit {
				continue
			}
			if len(entries) == 0 {
				continue
			}
		}

		if p.Required && len(entries) == 0 {
			verr.Add(p.ID, describe(labelOf(p), errRequired))
			continue
		}

		kept := make(map[string]struct{})
		for _, entry := range entries {
			claim, ok := b.claim(p, entry, verr)
			if !ok {
				continue
			}
			if st, found := matchStatement(p, entry, statements, kept); found {
				if unchanged(p, entry, st) {
					continue
				}
				claim.ID = wikibase.StatementGUID(st.StatementID)
				b.carryQualifiers(&claim, p, st)
			}
			patch.Claims = append(patch.Claims, claim)
		}

		if edit {
			for _, st := range statements {
				if st.StatementID == "" {
					continue
				}
				if _, ok := kept[st.StatementID]; ok {
					continue
				}
				patch.Remove = append(patch.Remove, wikibase.StatementGUID(st.StatementID))
			}
		}
	}

	if err := verr.ErrOrNil(); err != nil {
		return Patch{}, err
	}
	return patch, nil
}

func (b *Builder) claim(p schema.PropertyDescriptor, entry collect.Entry, verr *ValidationError) (Claim, bool) {
	var (
		dv  DataValue
		err error
	)
	if entry.Coordinate != nil {
		dv, err = CoordinateValueOf(entry.Coordinate.Lat, entry.Coordinate.Lon)
	} else {
		dv, err = Encode(p.Datatype, entry.Value, b.language)
	}
	ok := true
	if err != nil {
		verr.Add(entry.Path, describe(labelOf(p), err))
		ok = false
	}

	claim := newClaim(p.ID, dv)
	for _, q := range p.Qualifiers {
		raw, present := entry.Qualifiers[q.ID]
		if !present || strings.TrimSpace(raw) == "" {
			continue
		}
		qv, err := Encode(q.Datatype, raw, b.language)
		if err != nil {
			verr.Add(entry.QualifierPath(q.ID), describe(q.Label, err))
			ok = false
			continue
		}
		claim.addQualifier(valueSnak(q.ID, qv))
	}
	return claim, ok
}

// carryQualifiers copies the stored qualifiers of st that p does not
// describe onto claim, which replaces st.
func (b *Builder) carryQualifiers(claim *Claim, p schema.PropertyDescriptor, st itemdata.StatementSnapshot) {
	known := make(map[string]bool, len(p.Qualifiers))
	for _, q := range p.Qualifiers {
		known[q.ID] = true
	}
	ids := make([]string, 0, len(st.Qualifiers))
	for id := range st.Qualifiers {
		if !known[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		qv := st.Qualifiers[id]
		dv, err := Encode(qv.Datatype, model.InitialValue(qv.Value, schema.KindFor(qv.Datatype)), b.language)
		if err != nil {
			continue
		}
		claim.addQualifier(valueSnak(id, dv))
	}
}

// unchanged reports whether entry carries st's value and the same values
// for every qualifier p describes.
func unchanged(p schema.PropertyDescriptor, entry collect.Entry, st itemdata.StatementSnapshot) bool {
	if strings.TrimSpace(entry.Text()) != model.InitialValue(st.Value, p.Kind) {
		return false
	}
	for _, q := range p.Qualifiers {
		stored := ""
		if qv, ok := st.Qualifiers[q.ID]; ok {
			stored = model.InitialValue(qv.Value, q.Kind)
		}
		if strings.TrimSpace(entry.Qualifiers[q.ID]) != stored {
			return false
		}
	}
	return true
}

// matchStatement finds the stored statement entry updates. Group entries
// name their statement; simple values are matched by value.
func matchStatement(p schema.PropertyDescriptor, entry collect.Entry, statements []itemdata.StatementSnapshot, kept map[string]struct{}) (itemdata.StatementSnapshot, bool) {
	for _, st := range statements {
		if st.StatementID == "" {
			continue
		}
		if _, used := kept[st.StatementID]; used {
			continue
		}
		if entry.StatementID != "" {
			if wikibase.StatementGUID(entry.StatementID) != wikibase.StatementGUID(st.StatementID) {
				continue
			}
		} else if model.InitialValue(st.Value, p.Kind) != strings.TrimSpace(entry.Text()) {
			continue
		}
		kept[st.StatementID] = struct{}{}
		return st, true
	}
	return itemdata.StatementSnapshot{}, false
}

func newClaim(property string, dv DataValue) Claim {
	return Claim{
		MainSnak: valueSnak(property, dv),
		Type:     ClaimType,
		Rank:     RankNormal,
	}
}

func (c *Claim) addQualifier(snak Snak) {
	if c.Qualifiers == nil {
		c.Qualifiers = make(map[string][]Snak)
	}
	if _, ok := c.Qualifiers[snak.Property]; !ok {
		c.QualifiersOrder = append(c.QualifiersOrder, snak.Property)
	}
	c.Qualifiers[snak.Property] = append(c.Qualifiers[snak.Property], snak)
}

func labelOf(p schema.PropertyDescriptor) string {
	if p.Label != "" {
		return p.Label
	}
	return p.ID
}
