package strategy

import (
	"strconv"

	"github.com/goliatone/go-wikiform/pkg/collect"
	"github.com/goliatone/go-wikiform/pkg/entity"
)

// Built-in entity-type keys.
const (
	HumanKey              = "Human"
	ArchaeologicalSiteKey = "Archaeological_Site"
)

// Name properties used by Human.
const (
	GivenNameProperty  = "P147"
	FamilyNameProperty = "P148"
)

// Human puts given and family name first and rejects forms where both are
// empty. Neither name is required on its own.
func Human() Strategy {
	names := []string{GivenNameProperty, FamilyNameProperty}
	return Strategy{
		Name:       HumanKey,
		FieldOrder: func() []string { return names },
		ValidateForm: func(data collect.FormData) []entity.Violation {
			if len(data.Entries(GivenNameProperty)) > 0 || len(data.Entries(FamilyNameProperty)) > 0 {
				return nil
			}
			return []entity.Violation{{
				Field:   FormLevel,
				Message: "At least one name field (Given Name or Family Name) must be filled",
			}}
		},
	}
}

// ArchaeologicalSite checks that every submitted latitude is in range.
func ArchaeologicalSite() Strategy {
	return Strategy{
		Name: ArchaeologicalSiteKey,
		ValidateForm: func(data collect.FormData) []entity.Violation {
			var out []entity.Violation
			for _, id := range data.Order {
				for _, e := range data.Entries(id) {
					if e.Coordinate == nil {
						continue
					}
					lat, err := strconv.ParseFloat(e.Coordinate.Lat, 64)
					if err != nil {
						continue
					}
					if lat < -90 || lat > 90 {
						out = append(out, entity.Violation{
							Field:   e.Path,
							Message: "Latitude must be between -90 and 90 degrees",
						})
					}
				}
			}
			return out
		},
	}
}
