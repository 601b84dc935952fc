package components

import (
	"strings"

	"github.com/goliatone/go-wikiform/pkg/collect"
	"github.com/goliatone/go-wikiform/pkg/model"
	"github.com/goliatone/go-wikiform/pkg/render"
	"github.com/goliatone/go-wikiform/pkg/schema"
)

// Metadata keys understood by the default components.
const (
	// MetadataEntry marks a field rendered inside a group entry. Entry
	// selects take a single value.
	MetadataEntry = "entry"
)

// Control is the data component templates receive. Everything a template
// branches on is computed here so templates stay declarative.
type Control struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Widget      string       `json:"widget"`
	InputType   string       `json:"inputType"`
	InputMode   string       `json:"inputMode,omitempty"`
	Pattern     string       `json:"pattern,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
	Values      []string     `json:"values"`
	Coordinates []Coordinate `json:"coordinates,omitempty"`
	Options     []OptionView `json:"options,omitempty"`
	Multiple    bool         `json:"multiple"`
	Entry       bool         `json:"entry"`
	Required    bool         `json:"required"`
	Invalid     bool         `json:"invalid"`
	CustomName  string       `json:"customName,omitempty"`
	Custom      string       `json:"custom,omitempty"`
	DescribedBy string       `json:"describedBy,omitempty"`
}

// Coordinate is one latitude/longitude input pair.
type Coordinate struct {
	Lat     string `json:"lat"`
	Lon     string `json:"lon"`
	LatName string `json:"latName"`
	LonName string `json:"lonName"`
}

// OptionView is a select option with its selection state.
type OptionView struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Types    string `json:"types,omitempty"`
	Selected bool   `json:"selected"`
}

// ControlID is the element id of the input rendered for a form path.
func ControlID(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	return "wf-" + strings.ReplaceAll(trimmed, ".", "-")
}

// NewControl derives the template data for field.
func NewControl(field model.Field, data ComponentData) Control {
	c := Control{
		ID:      ControlID(field.Name),
		Name:    field.Name,
		Widget:  string(field.Widget),
		Invalid: data.Invalid,
		Entry:   field.Metadata[MetadataEntry] == "true",
	}
	// Entries can be removed or left blank, so only top-level inputs are
	// marked required in the browser.
	c.Required = field.Required && !c.Entry
	if c.Invalid {
		c.DescribedBy = c.ID + "-error"
	}

	switch field.Widget {
	case schema.KindURL:
		c.InputType = "url"
		c.Placeholder = "https://"
	case schema.KindNumber:
		c.InputType = "text"
		c.InputMode = "decimal"
		c.Pattern = `[+\-]?[0-9]+(\.[0-9]+)?`
	case schema.KindDate:
		c.InputType = "date"
	case schema.KindItemInput:
		c.InputType = "text"
		c.Pattern = `Q[0-9]+`
		c.Placeholder = "Q42"
	default:
		c.InputType = "text"
	}

	if field.Widget == schema.KindCoordinates {
		for _, v := range valuesOrBlank(field.Initial) {
			lat, lon := model.SplitCoordinate(v)
			c.Coordinates = append(c.Coordinates, Coordinate{
				Lat:     lat,
				Lon:     lon,
				LatName: model.LatPath(field.Name),
				LonName: model.LonPath(field.Name),
			})
		}
		return c
	}

	c.Values = valuesOrBlank(field.Initial)
	if field.Widget == schema.KindMultiselect {
		c.Multiple = !c.Entry
		selected := make(map[string]struct{}, len(field.Initial))
		for _, v := range field.Initial {
			selected[v] = struct{}{}
		}
		for _, o := range field.Options {
			_, ok := selected[o.Value]
			c.Options = append(c.Options, OptionView{
				Value:    o.Value,
				Label:    o.Label,
				Types:    strings.Join(o.Types, " "),
				Selected: ok,
			})
		}
		if c.Multiple {
			c.CustomName = field.Name + collect.CustomSuffix
			c.Custom = field.Metadata[render.MetadataCustomIDs]
		}
	}
	return c
}

func valuesOrBlank(values []string) []string {
	if len(values) == 0 {
		return []string{""}
	}
	return append([]string(nil), values...)
}
