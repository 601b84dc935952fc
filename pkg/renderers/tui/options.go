package tui

import "net/url"

// OutputFormat selects how Render serializes the collected form state.
type OutputFormat string

const (
	// OutputFormatJSON emits the state as a JSON object of string lists.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits a body that can be posted back to the
	// form service unchanged.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits one "path: value" line per answer.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// Theme prefixes prompts, section banners and error lines.
type Theme struct {
	PromptPrefix string
	InfoPrefix   string
	ErrorPrefix  string
}

// AnswersHook sees the collected state, keyed by form path, before it is
// serialized and may replace it.
type AnswersHook func(url.Values) (url.Values, error)

// Option configures the TUI renderer.
type Option func(*Renderer)

// WithPromptDriver replaces the survey driver, typically with a scripted one
// in tests.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithTerminal points the survey driver at other streams.
func WithTerminal(term Terminal) Option {
	return func(r *Renderer) {
		r.driver = NewSurveyDriver(term)
	}
}

// WithOutputFormat selects the serialization format.
func WithOutputFormat(format OutputFormat) Option {
	return func(r *Renderer) {
		if format != "" {
			r.outputFormat = format
		}
	}
}

// WithAnswersHook installs hook.
func WithAnswersHook(hook AnswersHook) Option {
	return func(r *Renderer) {
		r.answersHook = hook
	}
}

// WithTheme sets the message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}
