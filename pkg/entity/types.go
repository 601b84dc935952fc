package entity

import (
	"github.com/goliatone/go-wikiform/pkg/itemdata"
	"github.com/goliatone/go-wikiform/pkg/schema"
)

// Snak value types.
const (
	SnakValue     = "value"
	ClaimType     = "statement"
	RankNormal    = "normal"
	EntityTypeKey = "item"
	UnitOne       = "1"
)

// DataValue is a typed Wikibase value.
type DataValue struct {
	Value any    `json:"value"`
	Type  string `json:"type"`
}

// Snak is a property/value pair.
type Snak struct {
	SnakType  string     `json:"snaktype"`
	Property  string     `json:"property"`
	DataValue *DataValue `json:"datavalue,omitempty"`
}

// Claim is one statement. ID is set when the statement already exists.
type Claim struct {
	ID              string            `json:"id,omitempty"`
	MainSnak        Snak              `json:"mainsnak"`
	Type            string            `json:"type"`
	Rank            string            `json:"rank"`
	Qualifiers      map[string][]Snak `json:"qualifiers,omitempty"`
	QualifiersOrder []string          `json:"qualifiers-order,omitempty"`
}

// Property returns the id of the claim's main property.
func (c Claim) Property() string {
	return c.MainSnak.Property
}

// Term is a language-tagged label or description.
type Term struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

// Patch is the entity document sent to the write proxy.
type Patch struct {
	Labels       map[string]Term `json:"labels"`
	Descriptions map[string]Term `json:"descriptions,omitempty"`
	Claims       []Claim         `json:"claims,omitempty"`
	Remove       []string        `json:"-"`
}

// ClaimsFor returns the claims for propertyID in patch order.
func (p Patch) ClaimsFor(propertyID string) []Claim {
	var out []Claim
	for _, c := range p.Claims {
		if c.Property() == propertyID {
			out = append(out, c)
		}
	}
	return out
}

// Session is the context a patch is built in.
type Session struct {
	Mode       schema.Mode
	TypeValue  string
	InstanceOf string
	Snapshot   *itemdata.Snapshot
}

// EntityIDValue is the value of a wikibase-entityid datavalue.
type EntityIDValue struct {
	EntityType string `json:"entity-type"`
	NumericID  int64  `json:"numeric-id"`
	ID         string `json:"id"`
}

// QuantityValue is the value of a quantity datavalue.
type QuantityValue struct {
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

// TimeValue is the value of a time datavalue.
type TimeValue struct {
	Time          string `json:"time"`
	Timezone      int    `json:"timezone"`
	Before        int    `json:"before"`
	After         int    `json:"after"`
	Precision     int    `json:"precision"`
	CalendarModel string `json:"calendarmodel"`
}

// CoordinateValue is the value of a globecoordinate datavalue.
type CoordinateValue struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Precision float64 `json:"precision"`
	Globe     string  `json:"globe"`
}

// MonolingualValue is the value of a monolingualtext datavalue.
type MonolingualValue struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}
