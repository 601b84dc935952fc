package wikibase

import "strings"

// Datatype enumerates the property types the form pipeline understands. The
// string values match the fragment of the wikibase:propertyType URI.
type Datatype string

const (
	DatatypeString          Datatype = "String"
	DatatypeURL             Datatype = "Url"
	DatatypeExternalID      Datatype = "ExternalId"
	DatatypeQuantity        Datatype = "Quantity"
	DatatypeTime            Datatype = "Time"
	DatatypeGlobeCoordinate Datatype = "GlobeCoordinate"
	DatatypeItem            Datatype = "WikibaseItem"
	DatatypeMonolingualText Datatype = "Monolingualtext"
)

var knownDatatypes = map[Datatype]struct{}{
	DatatypeString:          {},
	DatatypeURL:             {},
	DatatypeExternalID:      {},
	DatatypeQuantity:        {},
	DatatypeTime:            {},
	DatatypeGlobeCoordinate: {},
	DatatypeItem:            {},
	DatatypeMonolingualText: {},
}

// ParseDatatype converts a propertyType URI (http://wikiba.se/ontology#Time)
// or bare fragment into a Datatype. Unknown names are returned as-is so they
// survive a round trip; callers treat them like strings.
func ParseDatatype(raw string) Datatype {
	trimmed := strings.TrimSpace(raw)
	if idx := strings.LastIndex(trimmed, "#"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	return Datatype(trimmed)
}

// Known reports whether d is one of the enumerated datatypes.
func (d Datatype) Known() bool {
	_, ok := knownDatatypes[d]
	return ok
}

// IsItem reports whether values of d reference other entities.
func (d Datatype) IsItem() bool {
	return d == DatatypeItem
}

// ValueType is the datavalue "type" Wikibase expects for the datatype.
func (d Datatype) ValueType() string {
	switch d {
	case DatatypeItem:
		return "wikibase-entityid"
	case DatatypeQuantity:
		return "quantity"
	case DatatypeTime:
		return "time"
	case DatatypeGlobeCoordinate:
		return "globecoordinate"
	case DatatypeMonolingualText:
		return "monolingualtext"
	default:
		return "string"
	}
}

const (
	// GregorianCalendar is the calendar model attached to time values.
	GregorianCalendar = "http://www.wikidata.org/entity/Q1985727"
	// EarthGlobe is the globe attached to coordinate values.
	EarthGlobe = "http://www.wikidata.org/entity/Q2"
	// CoordinatePrecision is the fixed precision used for submitted coordinates.
	CoordinatePrecision = 0.0001
	// DayPrecision is the Wikibase time precision for a calendar day.
	DayPrecision = 11
	// DefaultLanguage is used for labels, descriptions and monolingual text.
	DefaultLanguage = "en"
)
