// Package collect reads submitted form state back into per-property entries,
// the inverse of the form description built by pkg/model.
package collect

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-wikiform/pkg/model"
	"github.com/goliatone/go-wikiform/pkg/schema"
)

// CustomSuffix names the free-text input that adds item ids missing from a
// multiselect's options.
const CustomSuffix = ".custom"

// Coordinate is a latitude/longitude pair as typed by the user.
type Coordinate struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Entry is one value collected for a property. Path is the form path of the
// main value input, used to report validation errors.
type Entry struct {
	Path        string            `json:"path"`
	Value       string            `json:"value,omitempty"`
	Coordinate  *Coordinate       `json:"coordinate,omitempty"`
	Qualifiers  map[string]string `json:"qualifiers,omitempty"`
	StatementID string            `json:"statementId,omitempty"`
}

// Text returns the value as a single string; coordinates are joined as
// "lat,lon".
func (e Entry) Text() string {
	if e.Coordinate != nil {
		return model.JoinCoordinate(e.Coordinate.Lat, e.Coordinate.Lon)
	}
	return e.Value
}

// QualifierPath returns the form path of qualifier id within a group entry.
func (e Entry) QualifierPath(id string) string {
	return strings.TrimSuffix(e.Path, ".value") + ".qualifier." + id
}

// FormData is the collected state. Properties without any value are absent.
type FormData struct {
	Label       string             `json:"label"`
	Description string             `json:"description"`
	Properties  map[string][]Entry `json:"properties"`
	Order       []string           `json:"order,omitempty"`
}

// Entries returns the entries collected for propertyID.
func (d FormData) Entries(propertyID string) []Entry {
	return d.Properties[propertyID]
}

// Set replaces the entries of propertyID, keeping Order in sync.
func (d *FormData) Set(propertyID string, entries []Entry) {
	if d.Properties == nil {
		d.Properties = make(map[string][]Entry)
	}
	if len(entries) == 0 {
		delete(d.Properties, propertyID)
		for i, id := range d.Order {
			if id == propertyID {
				d.Order = append(d.Order[:i], d.Order[i+1:]...)
				break
			}
		}
		return
	}
	if _, ok := d.Properties[propertyID]; !ok {
		d.Order = append(d.Order, propertyID)
	}
	d.Properties[propertyID] = entries
}

// Collect reads state for every field of form. Empty strings, coordinates
// with a missing half and empty selections produce no entry; group entries
// without a main value are dropped with their qualifiers.
func Collect(form model.FormDescription, state url.Values) FormData {
	data := FormData{
		Label:       strings.TrimSpace(state.Get(schema.FieldLabel)),
		Description: strings.TrimSpace(state.Get(schema.FieldDescription)),
		Properties:  make(map[string][]Entry),
	}

	for _, field := range form.Fields() {
		if field.PropertyID == "" {
			continue
		}
		var entries []Entry
		if field.Group != nil {
			entries = collectGroup(field, state)
		} else {
			entries = collectSimple(field, state)
		}
		data.Set(field.PropertyID, entries)
	}
	return data
}

func collectSimple(field model.Field, state url.Values) []Entry {
	if field.Widget == schema.KindCoordinates {
		lats := state[model.LatPath(field.Name)]
		lons := state[model.LonPath(field.Name)]
		var out []Entry
		for i := 0; i < len(lats) && i < len(lons); i++ {
			if c, ok := coordinate(lats[i], lons[i]); ok {
				out = append(out, Entry{Path: field.Name, Coordinate: c})
			}
		}
		return out
	}

	values := append([]string(nil), state[field.Name]...)
	if field.Widget == schema.KindMultiselect {
		values = append(values, splitCustom(state.Get(field.Name+CustomSuffix))...)
	}

	var out []Entry
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, Entry{Path: field.Name, Value: v})
	}
	return out
}

func collectGroup(field model.Field, state url.Values) []Entry {
	var out []Entry
	for _, index := range EntryIndexes(field, state) {
		base := model.EntryPath(field.Name, index)
		entry := Entry{Path: base}

		if field.Widget == schema.KindCoordinates {
			c, ok := coordinate(state.Get(model.LatPath(base)), state.Get(model.LonPath(base)))
			if !ok {
				continue
			}
			entry.Coordinate = c
		} else {
			value := state.Get(model.ValuePath(field.Name, index))
			if strings.TrimSpace(value) == "" {
				continue
			}
			entry.Value = value
			entry.Path = model.ValuePath(field.Name, index)
		}

		for _, q := range field.Group.Qualifiers {
			v := state.Get(model.QualifierPath(field.Name, index, q.ID))
			if strings.TrimSpace(v) == "" {
				continue
			}
			if entry.Qualifiers == nil {
				entry.Qualifiers = make(map[string]string)
			}
			entry.Qualifiers[q.ID] = v
		}
		entry.StatementID = strings.TrimSpace(state.Get(model.StatementPath(field.Name, index)))
		out = append(out, entry)
	}
	return out
}

// EntryIndexes returns, in ascending order, the indexes of group entries known to
// the description plus any the client added.
func EntryIndexes(field model.Field, state url.Values) []int {
	set := make(map[int]struct{})
	for _, e := range field.Group.Entries {
		set[e.Index] = struct{}{}
	}
	prefix := field.Name + "."
	for key := range state {
		rest, ok := strings.CutPrefix(key, prefix)
		if !ok {
			continue
		}
		head, _, _ := strings.Cut(rest, ".")
		if n, err := strconv.Atoi(head); err == nil && n >= 0 {
			set[n] = struct{}{}
		}
	}
	out := make([]int, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func coordinate(lat, lon string) (*Coordinate, bool) {
	lat, lon = strings.TrimSpace(lat), strings.TrimSpace(lon)
	if lat == "" || lon == "" {
		return nil, false
	}
	return &Coordinate{Lat: lat, Lon: lon}, true
}

func splitCustom(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})
}
