package entity

import (
	"fmt"
	"sort"
	"strings"
)

// Violation is a single invalid input, addressed by its form path.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every violation found while building a patch.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Violations) == 0 {
		return "entity: validation failed"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}
	return "entity: validation failed: " + strings.Join(parts, "; ")
}

// Add records a violation for field.
func (e *ValidationError) Add(field, message string) {
	e.Violations = append(e.Violations, Violation{Field: field, Message: message})
}

// Fields groups messages by form path, the shape render.MapErrorPayload
// consumes.
func (e *ValidationError) Fields() map[string][]string {
	if e == nil || len(e.Violations) == 0 {
		return nil
	}
	out := make(map[string][]string, len(e.Violations))
	for _, v := range e.Violations {
		out[v.Field] = append(out[v.Field], v.Message)
	}
	return out
}

// FieldNames returns the sorted paths with at least one violation.
func (e *ValidationError) FieldNames() []string {
	fields := e.Fields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ErrOrNil returns e when it holds violations and nil otherwise.
func (e *ValidationError) ErrOrNil() error {
	if e == nil || len(e.Violations) == 0 {
		return nil
	}
	return e
}
