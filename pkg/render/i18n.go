package render

import (
	"errors"
	"strings"

	"github.com/goliatone/go-wikiform/pkg/model"
	"github.com/goliatone/go-wikiform/pkg/schema"
)

// Translator resolves a message key for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler returns the text shown for a key the translator
// could not resolve. args carries a map with the untranslated "default".
type MissingTranslationHandler func(locale, key string, args []any, err error) string

// ErrMissingTranslator is reported to MissingTranslationHandler when no
// translator is configured.
var ErrMissingTranslator = errors.New("render: translator not configured")

// MetadataSubmitLabel is the form metadata key holding the submit button text.
const MetadataSubmitLabel = "actions.submit"

// Translation keys. Field keys use the form path, so "fields.label.label"
// relabels the name input and "fields.P80.label" a property.
const (
	keyFormTitle    = "forms.%s.title"
	keySectionTitle = "sections.%s.title"
	keyFieldLabel   = "fields.%s.label"
	keyFieldDesc    = "fields.%s.description"
	keySubmit       = "actions.submit.%s"
)

func missingTranslationDefault(_ string, key string, args []any, _ error) string {
	for _, arg := range args {
		if m, ok := arg.(map[string]any); ok {
			if fallback, ok := m["default"].(string); ok {
				return fallback
			}
		}
	}
	return key
}

// SubmitLabel is the untranslated submit button text for form.
func SubmitLabel(form model.FormDescription) string {
	if label := strings.TrimSpace(form.Metadata[MetadataSubmitLabel]); label != "" {
		return label
	}
	if form.Mode == schema.ModeEdit {
		return "Update Item"
	}
	return "Create Item"
}

// LocalizeForm translates the form title, section titles, field labels and
// descriptions and the submit label in place. Labels fetched from the wiki
// are kept unless the translator has an explicit key for them. Nothing
// happens without a translator.
func LocalizeForm(form *model.FormDescription, opts RenderOptions) {
	if form == nil || opts.Translator == nil {
		return
	}
	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	tr := func(format, id, fallback string) string {
		return translate(opts.Locale, keyf(format, id), fallback, opts.Translator, onMissing)
	}

	typeKey := form.EntityType
	if typeKey == "" {
		typeKey = form.TypeValue
	}
	if typeKey != "" {
		form.Title = tr(keyFormTitle, typeKey+"."+string(form.Mode), form.Title)
	}

	for si := range form.Sections {
		section := &form.Sections[si]
		section.Title = tr(keySectionTitle, section.ID, section.Title)
		for fi := range section.Fields {
			field := &section.Fields[fi]
			field.Label = tr(keyFieldLabel, field.Name, field.Label)
			if field.Description != "" {
				field.Description = tr(keyFieldDesc, field.Name, field.Description)
			}
		}
	}

	if form.Metadata == nil {
		form.Metadata = make(map[string]string)
	}
	form.Metadata[MetadataSubmitLabel] = tr(keySubmit, string(form.Mode), SubmitLabel(*form))
}

func keyf(format, id string) string {
	return strings.Replace(format, "%s", id, 1)
}

func translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}
	params := []any{map[string]any{"default": fallback}}

	if t == nil {
		return onMissing(locale, key, params, ErrMissingTranslator)
	}
	result, err := t.Translate(locale, key)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}
	return onMissing(locale, key, params, err)
}

// ChromeTranslator returns the helper templates call for fixed interface
// text, {{ translate("chrome.type", "Type") }}. It resolves keys against the
// translator in opts and falls back to the supplied text.
func ChromeTranslator(opts RenderOptions) func(key, fallback string) string {
	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	return func(key, fallback string) string {
		if opts.Translator == nil {
			return fallback
		}
		return translate(opts.Locale, key, fallback, opts.Translator, onMissing)
	}
}
