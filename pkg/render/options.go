package render

import "net/url"

// RenderOptions describe per-request data that renderers can use to customise
// their output without mutating the form description.
type RenderOptions struct {
	// Action is the URL the form posts to. Empty keeps the current URL.
	Action string
	// Values re-populates controls from a previous submission, keyed by form
	// path. Renderers call ApplyValues so repeatable entries come back with the
	// qualifier inputs they had revealed.
	Values url.Values
	// Errors surfaces validation feedback keyed by form path.
	Errors map[string][]string
	// FormErrors are messages not tied to a single input.
	FormErrors []string
	// Hidden carries extra hidden inputs such as the proxy session id.
	Hidden map[string]string
	// Subset limits rendering to some sections or properties.
	Subset FieldSubset

	// Locale and Translator localise form chrome. OnMissing decides the text
	// shown when a key has no translation.
	Locale     string
	Translator Translator
	OnMissing  MissingTranslationHandler
}
