package model

// Options configures a Builder.
type Options struct {
	// Labeler titles forms whose entity type has no wiki label.
	Labeler func(string) string
	// Title replaces the computed form title.
	Title string
	// BasicTitle and PropertiesTitle head the two sections.
	BasicTitle      string
	PropertiesTitle string
}

func (o Options) withDefaults() Options {
	if o.Labeler == nil {
		o.Labeler = DefaultLabeler
	}
	if o.BasicTitle == "" {
		o.BasicTitle = "Basic Information"
	}
	if o.PropertiesTitle == "" {
		o.PropertiesTitle = "Properties"
	}
	return o
}
