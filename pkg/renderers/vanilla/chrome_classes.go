package vanilla

// ChromeClass is a typed identifier for semantic chrome CSS classes.
type ChromeClass string

const (
	ClassForm     ChromeClass = "wikiform-form"
	ClassHeader   ChromeClass = "wikiform-header"
	ClassSection  ChromeClass = "wikiform-section"
	ClassGrid     ChromeClass = "wikiform-grid"
	ClassActions  ChromeClass = "wikiform-actions"
	ClassErrors   ChromeClass = "wikiform-errors"
	ClassField    ChromeClass = "wikiform-field"
	ClassLabel    ChromeClass = "wikiform-label"
	ClassHelp     ChromeClass = "wikiform-help"
	ClassRequired ChromeClass = "wikiform-required"
	ClassError    ChromeClass = "wikiform-error"
)

func chromeClasses() map[string]string {
	return map[string]string{
		"form":    string(ClassForm),
		"header":  string(ClassHeader),
		"section": string(ClassSection),
		"grid":    string(ClassGrid),
		"actions": string(ClassActions),
		"errors":  string(ClassErrors),
	}
}
