package render

import (
	"strings"

	"github.com/goliatone/go-wikiform/pkg/model"
	"github.com/goliatone/go-wikiform/pkg/schema"
)

// ErrorMapping splits a validation payload into field-level and form-level
// messages keyed by the form paths renderers emit.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MergeFormErrors concatenates form-level messages, trimming them and
// dropping blanks and repeats while keeping order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return cleanMessages(combined)
}

// MapErrorPayload assigns each message in payload to the deepest form path
// of form its key names. Keys may be form paths ("P93.0.qualifier.P201"),
// property ids, or entity JSON paths ("/claims/P80", "labels.en"). A key
// naming a group entry that no longer exists lands on its property; keys
// matching nothing become form-level messages.
func MapErrorPayload(form model.FormDescription, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		return mapping
	}

	known := fieldPaths(form)
	for key, messages := range payload {
		messages = cleanMessages(messages)
		if len(messages) == 0 {
			continue
		}
		if path := resolvePath(key, known); path != "" {
			mapping.Fields[path] = append(mapping.Fields[path], messages...)
			continue
		}
		mapping.Form = append(mapping.Form, messages...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = cleanMessages(mapping.Form)
	return mapping
}

func cleanMessages(messages []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		message = strings.TrimSpace(message)
		if message == "" {
			continue
		}
		if _, dup := seen[message]; dup {
			continue
		}
		seen[message] = struct{}{}
		out = append(out, message)
	}
	return out
}

// entityKeys maps the top-level members of a Wikibase entity document onto
// the basic form fields.
var entityKeys = map[string]string{
	"labels":       "label",
	"descriptions": "description",
}

func resolvePath(key string, known map[string]struct{}) string {
	segments := splitKey(key)
	for len(segments) > 0 {
		switch strings.ToLower(segments[0]) {
		case "body", "data", "entity", "claims":
			segments = segments[1:]
			continue
		}
		break
	}
	if len(segments) == 0 {
		return ""
	}
	if basic, ok := entityKeys[segments[0]]; ok {
		segments = []string{basic}
	}

	for end := len(segments); end > 0; end-- {
		candidate := strings.Join(segments[:end], ".")
		if _, ok := known[candidate]; ok {
			return candidate
		}
	}
	return ""
}

func splitKey(key string) []string {
	key = strings.NewReplacer("[", ".", "]", "").Replace(strings.TrimSpace(key))
	return strings.FieldsFunc(key, func(r rune) bool {
		return r == '.' || r == '/' || r == '#' || r == '$'
	})
}

func fieldPaths(form model.FormDescription) map[string]struct{} {
	known := make(map[string]struct{})
	add := func(path string) { known[path] = struct{}{} }

	for _, field := range form.Fields() {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			continue
		}
		add(name)

		if g := field.Group; g != nil {
			for _, entry := range g.Entries {
				base := model.EntryPath(name, entry.Index)
				add(base)
				if field.Widget == schema.KindCoordinates {
					add(model.LatPath(base))
					add(model.LonPath(base))
				} else {
					add(model.ValuePath(name, entry.Index))
				}
				for _, q := range g.Qualifiers {
					add(model.QualifierPath(name, entry.Index, q.ID))
				}
			}
			continue
		}
		switch field.Widget {
		case schema.KindCoordinates:
			add(model.LatPath(name))
			add(model.LonPath(name))
		case schema.KindMultiselect:
			add(name + ".custom")
		}
	}
	return known
}
