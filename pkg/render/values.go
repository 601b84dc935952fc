package render

import (
	"net/url"
	"sort"
	"strings"

	"github.com/goliatone/go-wikiform/pkg/collect"
	"github.com/goliatone/go-wikiform/pkg/model"
	"github.com/goliatone/go-wikiform/pkg/schema"
)

// MetadataCustomIDs is the field metadata key holding custom item ids typed
// next to a multiselect.
const MetadataCustomIDs = "custom"

// ApplyValues replaces initial values with submitted state so a rejected
// form comes back as the user left it. Groups are rebuilt from the entry
// indexes present in values, each entry passing through model.Transition so
// its qualifier inputs are revealed again. Fields with no submitted key keep
// their description values.
func ApplyValues(form *model.FormDescription, values url.Values) {
	if form == nil || len(values) == 0 {
		return
	}
	for si := range form.Sections {
		for fi := range form.Sections[si].Fields {
			field := &form.Sections[si].Fields[fi]
			if field.Group != nil {
				applyGroupValues(field, values)
				continue
			}
			applyFieldValues(field, values)
		}
	}
}

func applyFieldValues(field *model.Field, values url.Values) {
	if field.Widget == schema.KindCoordinates {
		lats, lons := values[model.LatPath(field.Name)], values[model.LonPath(field.Name)]
		if lats == nil && lons == nil {
			return
		}
		field.Initial = nil
		for i := 0; i < len(lats) || i < len(lons); i++ {
			field.Initial = append(field.Initial, model.JoinCoordinate(at(lats, i), at(lons, i)))
		}
		return
	}

	submitted, ok := values[field.Name]
	custom, hasCustom := values[field.Name+collect.CustomSuffix]
	if !ok && !hasCustom {
		return
	}
	field.Initial = nil
	for _, v := range submitted {
		if strings.TrimSpace(v) != "" {
			field.Initial = append(field.Initial, v)
		}
	}
	if hasCustom && strings.TrimSpace(strings.Join(custom, "")) != "" {
		if field.Metadata == nil {
			field.Metadata = make(map[string]string)
		}
		field.Metadata[MetadataCustomIDs] = strings.Join(custom, ",")
	}
}

func applyGroupValues(field *model.Field, values url.Values) {
	prefix := field.Name + "."
	touched := false
	for key := range values {
		if strings.HasPrefix(key, prefix) {
			touched = true
			break
		}
	}
	if !touched {
		return
	}

	g := field.Group
	var entries []model.GroupEntry
	next := 0
	for _, index := range collect.EntryIndexes(*field, values) {
		if index >= next {
			next = index + 1
		}
		base := model.EntryPath(field.Name, index)
		if !hasPrefixKey(values, base+".") {
			continue
		}
		entry := model.GroupEntry{
			Index:       index,
			State:       model.EntryEmpty,
			StatementID: strings.TrimSpace(values.Get(model.StatementPath(field.Name, index))),
		}

		submitted := make(map[string]string)
		for _, q := range g.Qualifiers {
			if v := values.Get(model.QualifierPath(field.Name, index, q.ID)); strings.TrimSpace(v) != "" {
				submitted[q.ID] = v
			}
		}
		entry.Qualifiers = submitted

		main := values.Get(model.ValuePath(field.Name, index))
		if field.Widget == schema.KindCoordinates {
			lat, lon := values.Get(model.LatPath(base)), values.Get(model.LonPath(base))
			if lat != "" || lon != "" {
				main = model.JoinCoordinate(lat, lon)
			}
		}
		entry = model.Transition(entry, g.QualifierMap, main, g.ValueTypes[main]...)
		entries = append(entries, keepSubmitted(entry, submitted))
	}

	g.Entries = entries
	if next > g.NextIndex {
		g.NextIndex = next
	}
	if len(g.Entries) == 0 {
		g.Add()
	}
}

// keepSubmitted reveals qualifiers the user filled in even when the chosen
// value would not reveal them, so typed text is never silently dropped.
func keepSubmitted(entry model.GroupEntry, submitted map[string]string) model.GroupEntry {
	added := false
	for id, v := range submitted {
		if entry.Qualifiers == nil {
			entry.Qualifiers = make(map[string]string)
		}
		entry.Qualifiers[id] = v
		if !containsString(entry.Revealed, id) {
			entry.Revealed = append(entry.Revealed, id)
			added = true
		}
	}
	if added {
		sort.Strings(entry.Revealed)
		entry.State = model.EntryQualifiersRevealed
	}
	return entry
}

func hasPrefixKey(values url.Values, prefix string) bool {
	for key := range values {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func at(list []string, i int) string {
	if i < len(list) {
		return list[i]
	}
	return ""
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
