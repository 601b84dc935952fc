package render

import (
	"encoding/json"
	"strings"

	"github.com/goliatone/go-wikiform/pkg/model"
)

// FieldSubset limits rendering to some sections or fields. A field is kept
// when its section or its form name (or property id) is listed. Matching
// ignores case, so "p93" selects P93. An empty subset keeps everything.
type FieldSubset struct {
	Sections   []string `json:"sections,omitempty"`
	Properties []string `json:"properties,omitempty"`
}

// Empty reports whether the subset filters nothing.
func (s FieldSubset) Empty() bool {
	return len(tokenSet(s.Sections)) == 0 && len(tokenSet(s.Properties)) == 0
}

// ParseSubset reads the sections and properties query parameters. Each is
// a comma separated list or a JSON array of strings.
func ParseSubset(sections, properties string) FieldSubset {
	return FieldSubset{Sections: splitList(sections), Properties: splitList(properties)}
}

// ApplySubset keeps the fields selected by subset and drops sections left
// with none.
func ApplySubset(form *model.FormDescription, subset FieldSubset) {
	if form == nil || subset.Empty() {
		return
	}
	sections, fields := tokenSet(subset.Sections), tokenSet(subset.Properties)

	var kept []model.Section
	for _, section := range form.Sections {
		if sections[token(section.ID)] {
			kept = append(kept, section)
			continue
		}
		var selected []model.Field
		for _, f := range section.Fields {
			if fields[token(f.Name)] || (f.PropertyID != "" && fields[token(f.PropertyID)]) {
				selected = append(selected, f)
			}
		}
		if len(selected) > 0 {
			section.Fields = selected
			kept = append(kept, section)
		}
	}
	form.Sections = kept
}

func tokenSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if t := token(v); t != "" {
			set[t] = true
		}
	}
	return set
}

func token(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var items []string
	if !strings.HasPrefix(raw, "[") || json.Unmarshal([]byte(raw), &items) != nil {
		items = strings.Split(raw, ",")
	}

	seen := make(map[string]bool, len(items))
	var out []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
