package gotemplate_test

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-wikiform/pkg/render/template/gotemplate"
)

var templates = fstest.MapFS{
	"hello.tmpl":   {Data: []byte("Hello {{ name }}")},
	"control.tmpl": {Data: []byte(`<input name="{{ control.name }}"{% if control.required %} required{% endif %}>`)},
	"label.tmpl":   {Data: []byte("<label>{{ label|wikitext }}</label>")},
	"chrome.tmpl":  {Data: []byte(`{{ translate("chrome.type", "Type") }}: {{ kind }}`)},
}

type control struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

func newEngine(t *testing.T, opts ...gotemplate.Option) *gotemplate.Engine {
	t.Helper()
	engine, err := gotemplate.New(templates, opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngine_AddsExtension(t *testing.T) {
	out, err := newEngine(t).RenderTemplate("hello", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "Hello Ada" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestEngine_StructsUseJSONNames(t *testing.T) {
	out, err := newEngine(t).RenderTemplate("control.tmpl", map[string]any{
		"control": control{Name: "P93.0.value", Required: true},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != `<input name="P93.0.value" required>` {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestEngine_WikiTextFilter(t *testing.T) {
	out, err := newEngine(t).RenderTemplate("label", map[string]any{
		"label": `<script>alert(1)</script>Tel <b>Dan</b> & Co`,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "<script>") || strings.Contains(out, "<b>") {
		t.Fatalf("expected tags stripped, got %q", out)
	}
	if !strings.Contains(out, "Tel Dan &amp; Co") {
		t.Fatalf("expected text escaped once, got %q", out)
	}
}

func TestEngine_CallsFunctions(t *testing.T) {
	upper := func(key, fallback string) string { return strings.ToUpper(fallback) }

	out, err := newEngine(t).RenderTemplate("chrome", map[string]any{"translate": upper, "kind": "human"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "TYPE: human" {
		t.Fatalf("unexpected output %q", out)
	}

	global := newEngine(t, gotemplate.WithFuncs(map[string]any{"translate": upper}))
	out, err = global.RenderTemplate("chrome", map[string]any{"kind": "site"})
	if err != nil {
		t.Fatalf("render with global: %v", err)
	}
	if out != "TYPE: site" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestEngine_Errors(t *testing.T) {
	if _, err := gotemplate.New(nil); err == nil {
		t.Fatalf("expected error without template source")
	}
	if _, err := newEngine(t).RenderTemplate("missing", nil); err == nil {
		t.Fatalf("expected error for missing template")
	}
}
