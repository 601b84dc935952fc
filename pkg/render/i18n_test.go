package render_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-wikiform/pkg/render"
)

type stubTranslator map[string]string

func (t stubTranslator) Translate(_ string, key string, _ ...any) (string, error) {
	if msg, ok := t[key]; ok {
		return msg, nil
	}
	return "", errors.New("missing translation")
}

func TestLocalizeForm_UsesKeysAndFallbacks(t *testing.T) {
	form := siteForm()

	render.LocalizeForm(&form, render.RenderOptions{
		Locale: "es",
		Translator: stubTranslator{
			"forms.Archaeological_Site.create.title": "Nuevo yacimiento",
			"sections.basic.title":                   "Información básica",
			"fields.label.label":                     "Nombre",
			"actions.submit.create":                  "Crear",
		},
	})

	if form.Title != "Nuevo yacimiento" {
		t.Fatalf("expected translated title, got %q", form.Title)
	}
	got := []string{
		form.Sections[0].Title,
		form.Sections[1].Title,
		form.Sections[0].Fields[0].Label,
		form.Sections[1].Fields[0].Label,
		form.Sections[0].Fields[1].Description,
	}
	want := []string{"Información básica", "Properties", "Nombre", "inscription", ""}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("localized chrome mismatch (-want +got):\n%s", diff)
	}
	if label := render.SubmitLabel(form); label != "Crear" {
		t.Fatalf("expected translated submit label, got %q", label)
	}
}

func TestLocalizeForm_MissingHandlerAndNoTranslator(t *testing.T) {
	form := siteForm()
	render.LocalizeForm(&form, render.RenderOptions{})
	if form.Metadata != nil || form.Title != "Create New Archaeological Site" {
		t.Fatalf("expected no changes without translator, got %#v", form)
	}

	render.LocalizeForm(&form, render.RenderOptions{
		Translator: stubTranslator{},
		OnMissing: func(_ string, key string, _ []any, _ error) string {
			return "[" + key + "]"
		},
	})
	if form.Sections[1].Title != "[sections.properties.title]" {
		t.Fatalf("expected handler output, got %q", form.Sections[1].Title)
	}
}

func TestSubmitLabel_Defaults(t *testing.T) {
	form := siteForm()
	if got := render.SubmitLabel(form); got != "Create Item" {
		t.Fatalf("create label = %q", got)
	}
	form.Mode = "edit"
	if got := render.SubmitLabel(form); got != "Update Item" {
		t.Fatalf("edit label = %q", got)
	}
}

func TestChromeTranslator(t *testing.T) {
	translate := render.ChromeTranslator(render.RenderOptions{
		Locale:     "es",
		Translator: stubTranslator{"chrome.type": "Tipo"},
	})
	if got := translate("chrome.type", "Type"); got != "Tipo" {
		t.Fatalf("translate = %q", got)
	}
	if got := translate("chrome.item", "Item"); got != "Item" {
		t.Fatalf("fallback = %q", got)
	}

	plain := render.ChromeTranslator(render.RenderOptions{})
	if got := plain("chrome.type", "Type"); got != "Type" {
		t.Fatalf("without translator = %q", got)
	}
}
