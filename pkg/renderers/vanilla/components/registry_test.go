package components

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-wikiform/pkg/model"
	"github.com/goliatone/go-wikiform/pkg/schema"
)

func noop(*bytes.Buffer, model.Field, ComponentData) error { return nil }

func TestDefaultRegistry_ResolvesByKind(t *testing.T) {
	reg := NewDefaultRegistry()

	cases := []struct {
		field model.Field
		want  string
	}{
		{model.Field{Name: "label", Widget: schema.KindText}, NameInput},
		{model.Field{Name: "P20", Widget: schema.KindURL}, NameInput},
		{model.Field{Name: "P30", Widget: schema.KindDate}, NameInput},
		{model.Field{Name: "description", Widget: schema.KindTextarea}, NameTextarea},
		{model.Field{Name: "P93", Widget: schema.KindMultiselect}, NameSelect},
		{model.Field{Name: "P12", Widget: schema.KindCoordinates}, NameCoordinates},
		{model.Field{Name: "P50", Widget: schema.KindItemInput}, NameItemInput},
		{model.Field{Name: "P93", Widget: schema.KindMultiselect, Group: &model.Group{}}, NameGroup},
		{model.Field{Name: "P99", Widget: schema.Kind("sparkline")}, NameInput},
	}
	for _, tc := range cases {
		if got := reg.Resolve(tc.field); got != tc.want {
			t.Errorf("Resolve(%s %s) = %q, want %q", tc.field.Name, tc.field.Widget, got, tc.want)
		}
	}
}

func TestRegistry_LaterRegistrationClaimsKind(t *testing.T) {
	reg := NewDefaultRegistry()
	reg.MustRegister("map-picker", Descriptor{Renderer: noop, Kinds: []schema.Kind{schema.KindCoordinates}, Composite: true})

	if got := reg.Resolve(model.Field{Widget: schema.KindCoordinates}); got != "map-picker" {
		t.Fatalf("expected map-picker, got %q", got)
	}
	if !reg.Composite("Map-Picker") {
		t.Fatalf("expected composite lookup to ignore case")
	}
	if reg.Composite(NameInput) {
		t.Fatalf("input is a single control")
	}
}

func TestRegistry_DescriptorIsACopy(t *testing.T) {
	reg := New()
	reg.MustRegister("Coords", Descriptor{Renderer: noop, Kinds: []schema.Kind{schema.KindCoordinates}})

	d, ok := reg.Descriptor("coords")
	if !ok {
		t.Fatalf("descriptor not found")
	}
	d.Kinds[0] = schema.KindText

	again, _ := reg.Descriptor("COORDS")
	if diff := cmp.Diff([]schema.Kind{schema.KindCoordinates}, again.Kinds); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_RejectsInvalid(t *testing.T) {
	reg := New()
	if err := reg.Register(" ", Descriptor{Renderer: groupRenderer}); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if err := reg.Register("x", Descriptor{}); err == nil {
		t.Fatalf("expected error for nil renderer")
	}
}

func TestRegistry_AssetsOncePerPage(t *testing.T) {
	reg := NewDefaultRegistry()

	styles, scripts := reg.Assets([]string{NameInput, NameSelect, NameGroup, "unknown"})
	if len(styles) != 0 {
		t.Fatalf("expected no component stylesheets, got %v", styles)
	}
	if diff := cmp.Diff([]Script{{Src: RuntimeScript, Defer: true}}, scripts); diff != "" {
		t.Fatalf("scripts mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultRegistry_Names(t *testing.T) {
	want := []string{NameCoordinates, NameGroup, NameInput, NameItemInput, NameSelect, NameTextarea}
	if diff := cmp.Diff(want, NewDefaultRegistry().Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}
