package components

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-wikiform/pkg/model"
	"github.com/goliatone/go-wikiform/pkg/schema"
)

func periodField() model.Field {
	return model.Field{
		Name:       "P93",
		PropertyID: "P93",
		Label:      "period",
		Widget:     schema.KindMultiselect,
		Options:    []model.Option{{Value: "Q900", Label: "Iron Age", Types: []string{"Q5000"}}},
		Group: &model.Group{
			Property: "P93",
			Qualifiers: []model.Qualifier{
				{ID: "P201", Label: "start", Widget: schema.KindText},
				{ID: "P202", Label: "end", Widget: schema.KindText},
			},
			QualifierMap: schema.QualifierMap{"Q5000": {"P201"}},
			ValueTypes:   map[string][]string{"Q900": {"Q5000"}},
			Entries: []model.GroupEntry{
				{
					Index:       0,
					Main:        "Q900",
					Qualifiers:  map[string]string{"P201": "-900"},
					State:       model.EntryQualifiersRevealed,
					Revealed:    []string{"P201"},
					StatementID: "Q42-1",
				},
			},
			NextIndex: 1,
		},
	}
}

func TestGroupRenderer_EntriesAndTemplate(t *testing.T) {
	var children []model.Field
	data := ComponentData{
		RenderChild: func(f model.Field) (string, error) {
			children = append(children, f)
			return "<child " + f.Name + ">", nil
		},
	}

	var buf bytes.Buffer
	if err := groupRenderer(&buf, periodField(), data); err != nil {
		t.Fatalf("render group: %v", err)
	}
	out := buf.String()

	var names []string
	for _, c := range children {
		names = append(names, c.Name)
	}
	want := []string{
		"P93.0.value", "P93.0.qualifier.P201", "P93.0.qualifier.P202",
		"P93.__INDEX__.value", "P93.__INDEX__.qualifier.P201", "P93.__INDEX__.qualifier.P202",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("child fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Q900"}, children[0].Initial); diff != "" {
		t.Fatalf("main initial mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"-900"}, children[1].Initial); diff != "" {
		t.Fatalf("qualifier initial mismatch (-want +got):\n%s", diff)
	}

	for _, fragment := range []string{
		`data-group="P93"`,
		`data-qualifier-map="{&#34;Q5000&#34;:[&#34;P201&#34;]}"`,
		`data-next-index="1"`,
		`<input type="hidden" name="P93.0.statement" value="Q42-1">`,
		`data-qualifier="P201">`,
		`data-qualifier="P202" hidden>`,
		`<template data-entry-template><div class="wikiform-entry" data-entry="__INDEX__" data-state="empty">`,
	} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in output:\n%s", fragment, out)
		}
	}
}

func TestGroupRenderer_RequiresGroup(t *testing.T) {
	var buf bytes.Buffer
	err := groupRenderer(&buf, model.Field{Name: "P80"}, ComponentData{})
	if err == nil {
		t.Fatalf("expected error for field without group")
	}
}

func TestNewControl(t *testing.T) {
	field := model.Field{
		Name:     "P93",
		Widget:   schema.KindMultiselect,
		Options:  []model.Option{{Value: "Q900", Label: "Iron Age", Types: []string{"Q5000", "Q6"}}, {Value: "Q901", Label: "Roman"}},
		Initial:  []string{"Q901"},
		Metadata: map[string]string{"custom": "Q77"},
	}
	got := NewControl(field, ComponentData{Invalid: true})
	want := Control{
		ID:        "wf-P93",
		Name:      "P93",
		Widget:    "multiselect",
		InputType: "text",
		Values:    []string{"Q901"},
		Options: []OptionView{
			{Value: "Q900", Label: "Iron Age", Types: "Q5000 Q6"},
			{Value: "Q901", Label: "Roman", Selected: true},
		},
		Multiple:    true,
		Invalid:     true,
		CustomName:  "P93.custom",
		Custom:      "Q77",
		DescribedBy: "wf-P93-error",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("control mismatch (-want +got):\n%s", diff)
	}

	coords := NewControl(model.Field{Name: "P12.0", Widget: schema.KindCoordinates, Initial: []string{"33.2,35.6"}}, ComponentData{})
	wantCoords := []Coordinate{{Lat: "33.2", Lon: "35.6", LatName: "P12.0.lat", LonName: "P12.0.lon"}}
	if diff := cmp.Diff(wantCoords, coords.Coordinates); diff != "" {
		t.Fatalf("coordinates mismatch (-want +got):\n%s", diff)
	}
	if coords.ID != "wf-P12-0" {
		t.Fatalf("unexpected id %q", coords.ID)
	}

	entry := NewControl(model.Field{Name: "P93.0.value", Widget: schema.KindMultiselect, Metadata: map[string]string{MetadataEntry: "true"}}, ComponentData{})
	if entry.Multiple || entry.CustomName != "" || !entry.Entry {
		t.Fatalf("entry select must be single valued: %+v", entry)
	}
}
