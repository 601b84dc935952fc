package render

import (
	"sort"
	"strings"
)

// HiddenField is a hidden input emitted alongside the visible fields.
// Statement ids of group entries are written by the renderers themselves;
// hidden fields carry request-level values such as the proxy session.
type HiddenField struct {
	Name  string
	Value string
}

// SessionFieldName is the hidden input carrying the write proxy session id
// between the rendered form and its submission.
const SessionFieldName = "_session"

// SessionField constructs the hidden session id input.
func SessionField(sessionID string) HiddenField {
	return HiddenField{Name: SessionFieldName, Value: sessionID}
}

// MergeHiddenFields returns a copy of base with fields applied. Blank names
// are dropped and later fields win.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	out := make(map[string]string, len(base)+len(fields))
	for name, value := range base {
		if name = strings.TrimSpace(name); name != "" {
			out[name] = value
		}
	}
	for _, field := range fields {
		if name := strings.TrimSpace(field.Name); name != "" {
			out[name] = field.Value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedHiddenFields lists fields by name, dropping blank names.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	var out []HiddenField
	for name, value := range fields {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, HiddenField{Name: name, Value: value})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
