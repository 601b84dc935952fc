package entity_test

import (
	"errors"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-wikiform/pkg/collect"
	"github.com/goliatone/go-wikiform/pkg/entity"
	"github.com/goliatone/go-wikiform/pkg/itemdata"
	"github.com/goliatone/go-wikiform/pkg/model"
	"github.com/goliatone/go-wikiform/pkg/schema"
	"github.com/goliatone/go-wikiform/pkg/wikibase"
)

func property(id, label string, dt wikibase.Datatype) schema.PropertyDescriptor {
	return schema.PropertyDescriptor{ID: id, Label: label, Datatype: dt, Kind: schema.KindFor(dt)}
}

func siteSchema() schema.Schema {
	period := property("P93", "Period", wikibase.DatatypeItem)
	period.Kind = schema.KindMultiselect
	period.Values = []schema.ValueOption{{ID: "Q7", Label: "Iron Age", Types: []string{"Q1"}}}
	period.Qualifiers = []schema.QualifierDescriptor{{ID: "P201", Label: "Year", Datatype: wikibase.DatatypeQuantity, Kind: schema.KindNumber}}
	period.QualifierMap = schema.QualifierMap{"Q1": {"P201"}}

	return schema.Schema{
		Basic: schema.BasicFields(),
		Properties: []schema.PropertyDescriptor{
			property("P1", "Instance of", wikibase.DatatypeItem),
			property("P80", "Material", wikibase.DatatypeString),
			property("P81", "Height", wikibase.DatatypeQuantity),
			property("P82", "Excavated", wikibase.DatatypeTime),
			property("P83", "Website", wikibase.DatatypeURL),
			property("P12", "Location", wikibase.DatatypeGlobeCoordinate),
			period,
		},
	}
}

func build(t *testing.T, s schema.Schema, session entity.Session, state url.Values) (entity.Patch, error) {
	t.Helper()
	form := model.Build(s, session.Snapshot, model.WithMode(session.Mode))
	data := collect.Collect(form, state)
	return entity.NewBuilder().Build(data, s, session)
}

func TestBuild_CreateWithOnlyNameYieldsTypeClaim(t *testing.T) {
	session := entity.Session{Mode: schema.ModeCreate, TypeValue: "Q507", InstanceOf: "P1"}
	patch, err := build(t, siteSchema(), session, url.Values{"label": {"Site A"}, "P1": {"Q999"}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	want := entity.Patch{
		Labels: map[string]entity.Term{"en": {Language: "en", Value: "Site A"}},
		Claims: []entity.Claim{{
			MainSnak: entity.Snak{
				SnakType: "value",
				Property: "P1",
				DataValue: &entity.DataValue{
					Type:  "wikibase-entityid",
					Value: entity.EntityIDValue{EntityType: "item", NumericID: 507, ID: "Q507"},
				},
			},
			Type: "statement",
			Rank: "normal",
		}},
	}
	if diff := cmp.Diff(want, patch); diff != "" {
		t.Fatalf("patch mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_LiteralValuesRoundTrip(t *testing.T) {
	session := entity.Session{Mode: schema.ModeCreate, TypeValue: "Q507", InstanceOf: "P1"}
	state := url.Values{
		"label":       {"Site B"},
		"description": {"A hill"},
		"P80":         {"bronze"},
		"P81":         {"12.50"},
		"P82":         {"1999-02-28"},
		"P83":         {"https://example.org/b"},
		"P12.lat":     {"29.7856"},
		"P12.lon":     {"34.9642"},
	}
	patch, err := build(t, siteSchema(), session, state)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if got := patch.Descriptions["en"].Value; got != "A hill" {
		t.Fatalf("description = %q", got)
	}
	value := func(id string) any {
		claims := patch.ClaimsFor(id)
		if len(claims) != 1 {
			t.Fatalf("expected one claim for %s, got %d", id, len(claims))
		}
		return claims[0].MainSnak.DataValue.Value
	}

	if got := value("P80"); got != "bronze" {
		t.Fatalf("P80 = %v", got)
	}
	if diff := cmp.Diff(entity.QuantityValue{Amount: "+12.50", Unit: "1"}, value("P81")); diff != "" {
		t.Fatalf("quantity mismatch (-want +got):\n%s", diff)
	}
	wantTime := entity.TimeValue{Time: "+1999-02-28T00:00:00Z", Precision: 11, CalendarModel: wikibase.GregorianCalendar}
	if diff := cmp.Diff(wantTime, value("P82")); diff != "" {
		t.Fatalf("time mismatch (-want +got):\n%s", diff)
	}
	if got := value("P83"); got != "https://example.org/b" {
		t.Fatalf("P83 = %v", got)
	}
	wantCoord := entity.CoordinateValue{Latitude: 29.7856, Longitude: 34.9642, Precision: 0.0001, Globe: wikibase.EarthGlobe}
	if diff := cmp.Diff(wantCoord, value("P12")); diff != "" {
		t.Fatalf("coordinate mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_GroupQualifiers(t *testing.T) {
	session := entity.Session{Mode: schema.ModeCreate, TypeValue: "Q507", InstanceOf: "P1"}
	state := url.Values{
		"label":                {"Site C"},
		"P93.0.value":          {"Q7"},
		"P93.0.qualifier.P201": {"-900"},
		"P93.1.value":          {"Q7"},
	}
	patch, err := build(t, siteSchema(), session, state)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	claims := patch.ClaimsFor("P93")
	if len(claims) != 2 {
		t.Fatalf("expected two P93 claims, got %d", len(claims))
	}
	if diff := cmp.Diff([]string{"P201"}, claims[0].QualifiersOrder); diff != "" {
		t.Fatalf("qualifier order mismatch (-want +got):\n%s", diff)
	}
	q := claims[0].Qualifiers["P201"][0].DataValue.Value
	if diff := cmp.Diff(entity.QuantityValue{Amount: "-900", Unit: "1"}, q); diff != "" {
		t.Fatalf("qualifier mismatch (-want +got):\n%s", diff)
	}
	if claims[1].Qualifiers != nil {
		t.Fatalf("expected no qualifiers on second entry, got %v", claims[1].Qualifiers)
	}
}

func TestBuild_CollectsEveryViolation(t *testing.T) {
	s := siteSchema()
	s.Properties[1].Required = true
	session := entity.Session{Mode: schema.ModeCreate, TypeValue: "Q507", InstanceOf: "P1"}
	state := url.Values{
		"P81":                  {"12cm"},
		"P82":                  {"1999-02-30"},
		"P12.lat":              {"91"},
		"P12.lon":              {"10"},
		"P93.0.value":          {"Iron Age"},
		"P93.0.qualifier.P201": {"soon"},
	}

	_, err := build(t, s, session, state)
	var verr *entity.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	want := []string{"P12", "P80", "P81", "P82", "P93.0.qualifier.P201", "P93.0.value", "label"}
	if diff := cmp.Diff(want, verr.FieldNames()); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
	if got := verr.Fields()["P12"][0]; got != "Location latitude must be between -90 and 90" {
		t.Fatalf("unexpected coordinate message %q", got)
	}
}

func TestBuild_InvalidTypeValue(t *testing.T) {
	session := entity.Session{Mode: schema.ModeCreate, TypeValue: "bogus", InstanceOf: "P1"}
	_, err := build(t, siteSchema(), session, url.Values{"label": {"X"}})
	var verr *entity.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if diff := cmp.Diff([]string{"P1"}, verr.FieldNames()); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
}

func editSnapshot() *itemdata.Snapshot {
	return &itemdata.Snapshot{
		Label: "Site D",
		Properties: map[string][]itemdata.StatementSnapshot{
			"P1": {{Value: itemdata.Value{ID: "Q507", Label: "Site"}, Datatype: wikibase.DatatypeItem, StatementID: "Q42-1"}},
			"P80": {
				{Value: itemdata.Value{Literal: "bronze"}, Datatype: wikibase.DatatypeString, StatementID: "Q42-2"},
				{Value: itemdata.Value{Literal: "iron"}, Datatype: wikibase.DatatypeString, StatementID: "Q42-3"},
			},
			"P93": {{
				Value:       itemdata.Value{ID: "Q7", Label: "Iron Age"},
				Datatype:    wikibase.DatatypeItem,
				StatementID: "Q42-4",
				Qualifiers: map[string]itemdata.QualifierValue{
					"P201": {Value: itemdata.Value{Literal: "+900"}, Datatype: wikibase.DatatypeQuantity},
				},
			}},
			"P999": {{Value: itemdata.Value{Literal: "untouched"}, Datatype: wikibase.DatatypeString, StatementID: "Q42-9"}},
		},
	}
}

func TestBuild_EditReplacesCoveredStatements(t *testing.T) {
	snapshot := editSnapshot()
	session := entity.Session{Mode: schema.ModeEdit, TypeValue: "Q507", InstanceOf: "P1", Snapshot: snapshot}
	state := url.Values{
		"label":                {"Site D"},
		"P80":                  {"bronze", "copper"},
		"P93.0.value":          {"Q7"},
		"P93.0.qualifier.P201": {"950"},
		"P93.0.statement":      {"Q42-4"},
	}
	patch, err := build(t, siteSchema(), session, state)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	ids := func(claims []entity.Claim) []string {
		var out []string
		for _, c := range claims {
			out = append(out, c.ID)
		}
		return out
	}
	if got := patch.ClaimsFor("P1"); len(got) != 0 {
		t.Fatalf("unchanged instance-of must not be re-emitted, got %+v", got)
	}
	if diff := cmp.Diff([]string{""}, ids(patch.ClaimsFor("P80"))); diff != "" {
		t.Fatalf("P80 ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Q42$4"}, ids(patch.ClaimsFor("P93"))); diff != "" {
		t.Fatalf("P93 ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Q42$3"}, patch.Remove); diff != "" {
		t.Fatalf("remove mismatch (-want +got):\n%s", diff)
	}
	if len(patch.ClaimsFor("P999")) != 0 {
		t.Fatalf("properties outside the schema must not be touched")
	}
}

func TestBuild_EditClearingPropertyRemovesStatements(t *testing.T) {
	session := entity.Session{Mode: schema.ModeEdit, InstanceOf: "P1", Snapshot: editSnapshot()}
	patch, err := build(t, siteSchema(), session, url.Values{"label": {"Site D"}, "P1": {""}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if diff := cmp.Diff([]string{"Q42$2", "Q42$3", "Q42$4"}, patch.Remove); diff != "" {
		t.Fatalf("remove mismatch (-want +got):\n%s", diff)
	}
	if got := patch.ClaimsFor("P1"); len(got) != 0 {
		t.Fatalf("stored instance-of must be left alone, got %+v", got)
	}
}

func TestBuild_EditKeepsStatementDetailsOutsideTheForm(t *testing.T) {
	labNote := map[string]itemdata.QualifierValue{
		"P500": {Value: itemdata.Value{Literal: "lab report"}, Datatype: wikibase.DatatypeString},
	}
	snapshot := &itemdata.Snapshot{
		Label: "Site E",
		Properties: map[string][]itemdata.StatementSnapshot{
			"P80": {{
				Value:       itemdata.Value{Literal: "bronze"},
				Datatype:    wikibase.DatatypeString,
				StatementID: "Q900-AAAA",
				Qualifiers:  labNote,
			}},
			"P93": {{
				Value:       itemdata.Value{ID: "Q7", Label: "Iron Age"},
				Datatype:    wikibase.DatatypeItem,
				StatementID: "Q900-BBBB",
				Qualifiers: map[string]itemdata.QualifierValue{
					"P201": {Value: itemdata.Value{Literal: "+900"}, Datatype: wikibase.DatatypeQuantity},
					"P500": labNote["P500"],
				},
			}},
		},
	}
	session := entity.Session{Mode: schema.ModeEdit, Snapshot: snapshot}
	state := func(year string) url.Values {
		return url.Values{
			"label":                {"Site E"},
			"P80":                  {"bronze"},
			"P93.0.value":          {"Q7"},
			"P93.0.qualifier.P201": {year},
			"P93.0.statement":      {"Q900-BBBB"},
		}
	}

	t.Run("unchanged", func(t *testing.T) {
		patch, err := build(t, siteSchema(), session, state("900"))
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		if len(patch.Claims) != 0 {
			t.Fatalf("unchanged statements must not be re-emitted, got %+v", patch.Claims)
		}
		if len(patch.Remove) != 0 {
			t.Fatalf("unchanged statements must not be removed, got %v", patch.Remove)
		}
	})

	t.Run("changed", func(t *testing.T) {
		patch, err := build(t, siteSchema(), session, state("950"))
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		if got := patch.ClaimsFor("P80"); len(got) != 0 {
			t.Fatalf("unchanged P80 must not be re-emitted, got %+v", got)
		}
		claims := patch.ClaimsFor("P93")
		if len(claims) != 1 {
			t.Fatalf("expected one P93 claim, got %+v", claims)
		}
		if claims[0].ID != "Q900$BBBB" {
			t.Fatalf("expected the stored id, got %q", claims[0].ID)
		}
		if diff := cmp.Diff([]string{"P201", "P500"}, claims[0].QualifiersOrder); diff != "" {
			t.Fatalf("qualifier order mismatch (-want +got):\n%s", diff)
		}
		want := []entity.Snak{{
			SnakType:  entity.SnakValue,
			Property:  "P500",
			DataValue: &entity.DataValue{Type: "string", Value: "lab report"},
		}}
		if diff := cmp.Diff(want, claims[0].Qualifiers["P500"]); diff != "" {
			t.Fatalf("carried qualifier mismatch (-want +got):\n%s", diff)
		}
		if len(patch.Remove) != 0 {
			t.Fatalf("expected no removals, got %v", patch.Remove)
		}
	})
}
