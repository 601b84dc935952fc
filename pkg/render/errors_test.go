package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-wikiform/pkg/render"
)

func TestMapErrorPayload_FormPaths(t *testing.T) {
	form := siteForm()

	payload := map[string][]string{
		"label":                {"Name is required"},
		"P12":                  {"location latitude must be between -90 and 90"},
		"P12.lat":              {"Latitude must be between -90 and 90 degrees"},
		"P93.0.value":          {"period must be an item id like Q42"},
		"P93.0.qualifier.P201": {" start is required "},
		"P93.7.value":          {"stale entry"},
		"/body/P80":            {"inscription is required"},
		"claims/P93[0]":        {"duplicate statement"},
		"descriptions.en":      {"description too long"},
		"form":                 {"At least one name field must be filled"},
		"P999":                 {"unknown property"},
		"":                     {"Unscoped form error", "Unscoped form error"},
	}

	mapped := render.MapErrorPayload(form, payload)

	wantFields := map[string][]string{
		"label":                {"Name is required"},
		"description":          {"description too long"},
		"P12":                  {"location latitude must be between -90 and 90"},
		"P12.lat":              {"Latitude must be between -90 and 90 degrees"},
		"P93.0.value":          {"period must be an item id like Q42"},
		"P93.0.qualifier.P201": {"start is required"},
		"P93":                  {"stale entry"},
		"P93.0":                {"duplicate statement"},
		"P80":                  {"inscription is required"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}

	wantForm := []string{"At least one name field must be filled", "Unscoped form error", "unknown property"}
	if diff := cmp.Diff(wantForm, mapped.Form, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMapErrorPayload_Empty(t *testing.T) {
	mapped := render.MapErrorPayload(siteForm(), nil)
	if len(mapped.Fields) != 0 || len(mapped.Form) != 0 {
		t.Fatalf("unexpected mapping %#v", mapped)
	}
}

func TestMergeFormErrors(t *testing.T) {
	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	want := []string{"First", "Second", "third"}

	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged form errors mismatch (-want +got):\n%s", diff)
	}
}
