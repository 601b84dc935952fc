package render_test

import (
	"github.com/goliatone/go-wikiform/pkg/model"
	"github.com/goliatone/go-wikiform/pkg/schema"
	"github.com/goliatone/go-wikiform/pkg/wikibase"
)

// siteForm is an archaeological site form: basic fields, a string, a
// coordinate and a qualifier-bearing period group.
func siteForm() model.FormDescription {
	return model.FormDescription{
		Mode:       schema.ModeCreate,
		EntityType: "Archaeological_Site",
		Title:      "Create New Archaeological Site",
		TypeValue:  "Q507",
		Sections: []model.Section{
			{
				ID:    model.SectionBasic,
				Title: "Basic Information",
				Fields: []model.Field{
					{Name: "label", Label: "Name", Widget: schema.KindText, Required: true},
					{Name: "description", Label: "Description", Widget: schema.KindTextarea},
				},
			},
			{
				ID:    model.SectionProperties,
				Title: "Properties",
				Fields: []model.Field{
					{Name: "P80", PropertyID: "P80", Label: "inscription", Widget: schema.KindText, Datatype: wikibase.DatatypeString},
					{Name: "P12", PropertyID: "P12", Label: "location", Widget: schema.KindCoordinates, Datatype: wikibase.DatatypeGlobeCoordinate},
					{
						Name:       "P93",
						PropertyID: "P93",
						Label:      "period",
						Widget:     schema.KindMultiselect,
						Datatype:   wikibase.DatatypeItem,
						Options: []model.Option{
							{Value: "Q900", Label: "Iron Age", Types: []string{"Q5000"}},
							{Value: "Q901", Label: "Roman"},
						},
						Group: &model.Group{
							Property: "P93",
							Qualifiers: []model.Qualifier{
								{ID: "P201", Label: "start", Datatype: wikibase.DatatypeString, Widget: schema.KindText},
								{ID: "P202", Label: "end", Datatype: wikibase.DatatypeString, Widget: schema.KindText},
							},
							QualifierMap: schema.QualifierMap{"Q5000": {"P201", "P202"}},
							ValueTypes:   map[string][]string{"Q900": {"Q5000"}},
							Entries:      []model.GroupEntry{{Index: 0, State: model.EntryEmpty}},
							NextIndex:    1,
						},
					},
				},
			},
		},
	}
}
