package orchestrator_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-wikiform/pkg/model"
	"github.com/goliatone/go-wikiform/pkg/orchestrator"
)

const sitePreset = `
"*":
  metadata:
    actions.submit: Save
Archaeological_Site:
  title: Register a site
  sections:
    properties: Site details
  fields:
    P80:
      label: Inscription
      required: true
      metadata: {cli.help: Transcribed text}
    P999:
      label: never applied
Human:
  title: Register a person
`

func siteForm() model.FormDescription {
	return model.FormDescription{
		EntityType: "Archaeological_Site",
		Title:      "Archaeological site",
		Sections: []model.Section{
			{ID: model.SectionBasic, Title: "Basic", Fields: []model.Field{{Name: "label", Label: "Label"}}},
			{ID: model.SectionProperties, Title: "Properties", Fields: []model.Field{{Name: "P80", Label: "inscription"}}},
		},
	}
}

func TestPresetTransformer_AppliesWildcardThenEntityType(t *testing.T) {
	preset, err := orchestrator.LoadPresetTransformer(fstest.MapFS{
		"presets.yaml": &fstest.MapFile{Data: []byte(sitePreset)},
	}, "presets.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	form := siteForm()
	if err := preset.Transform(context.Background(), &form); err != nil {
		t.Fatalf("transform: %v", err)
	}

	if form.Title != "Register a site" {
		t.Fatalf("title = %q", form.Title)
	}
	if diff := cmp.Diff(map[string]string{"actions.submit": "Save"}, form.Metadata); diff != "" {
		t.Fatalf("form metadata mismatch (-want +got):\n%s", diff)
	}
	if s, _ := form.Section(model.SectionProperties); s.Title != "Site details" {
		t.Fatalf("section title = %q", s.Title)
	}
	field, _ := form.Field("P80")
	want := model.Field{
		Name:     "P80",
		Label:    "Inscription",
		Required: true,
		Metadata: map[string]string{"cli.help": "Transcribed text"},
	}
	if diff := cmp.Diff(want, *field); diff != "" {
		t.Fatalf("field mismatch (-want +got):\n%s", diff)
	}
}

func TestPresetTransformer_Errors(t *testing.T) {
	if _, err := orchestrator.NewPresetTransformer([]byte("  \n")); err == nil {
		t.Fatalf("expected error for empty document")
	}
	if _, err := orchestrator.NewPresetTransformer([]byte("Human: [")); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := orchestrator.LoadPresetTransformer(fstest.MapFS{}, "missing.yaml"); err == nil {
		t.Fatalf("expected read error")
	}

	preset, err := orchestrator.NewPresetTransformer([]byte(sitePreset))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	form := siteForm()
	if err := preset.Transform(ctx, &form); err == nil {
		t.Fatalf("expected context error")
	}
}
