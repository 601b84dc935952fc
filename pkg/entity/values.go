package entity

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-wikiform/pkg/wikibase"
)

var quantityPattern = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)

const dateLayout = "2006-01-02"

// Value encoding failures. Their text is shown next to the offending input.
var (
	errRequired   = errors.New("is required")
	errItemID     = errors.New("must be an item id such as Q123")
	errQuantity   = errors.New("must be a number")
	errDate       = errors.New("must be a date in YYYY-MM-DD format")
	errCoordinate = errors.New("must be a latitude and longitude")
	errLatitude   = errors.New("latitude must be between -90 and 90")
	errLongitude  = errors.New("longitude must be between -180 and 180")
)

// ItemValue encodes an item reference.
func ItemValue(id string) (DataValue, error) {
	id = strings.TrimSpace(id)
	n, err := wikibase.NumericID(id)
	if err != nil || !wikibase.IsItemID(id) {
		return DataValue{}, errItemID
	}
	return DataValue{
		Type:  wikibase.DatatypeItem.ValueType(),
		Value: EntityIDValue{EntityType: EntityTypeKey, NumericID: n, ID: id},
	}, nil
}

// QuantityValueOf encodes a unitless quantity. The user's digits are kept
// verbatim; a plus sign is added when the amount is unsigned.
func QuantityValueOf(raw string) (DataValue, error) {
	amount := strings.TrimSpace(raw)
	if !quantityPattern.MatchString(amount) {
		return DataValue{}, errQuantity
	}
	if !strings.HasPrefix(amount, "+") && !strings.HasPrefix(amount, "-") {
		amount = "+" + amount
	}
	return DataValue{
		Type:  wikibase.DatatypeQuantity.ValueType(),
		Value: QuantityValue{Amount: amount, Unit: UnitOne},
	}, nil
}

// TimeValueOf encodes a day-precision Gregorian date.
func TimeValueOf(raw string) (DataValue, error) {
	day := strings.TrimSpace(raw)
	if _, err := time.Parse(dateLayout, day); err != nil {
		return DataValue{}, errDate
	}
	return DataValue{
		Type: wikibase.DatatypeTime.ValueType(),
		Value: TimeValue{
			Time:          "+" + day + "T00:00:00Z",
			Precision:     wikibase.DayPrecision,
			CalendarModel: wikibase.GregorianCalendar,
		},
	}, nil
}

// CoordinateValueOf encodes an Earth coordinate.
func CoordinateValueOf(lat, lon string) (DataValue, error) {
	latitude, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return DataValue{}, errCoordinate
	}
	longitude, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return DataValue{}, errCoordinate
	}
	if latitude < -90 || latitude > 90 {
		return DataValue{}, errLatitude
	}
	if longitude < -180 || longitude > 180 {
		return DataValue{}, errLongitude
	}
	return DataValue{
		Type: wikibase.DatatypeGlobeCoordinate.ValueType(),
		Value: CoordinateValue{
			Latitude:  latitude,
			Longitude: longitude,
			Precision: wikibase.CoordinatePrecision,
			Globe:     wikibase.EarthGlobe,
		},
	}, nil
}

// MonolingualValueOf encodes text tagged with language.
func MonolingualValueOf(text, language string) DataValue {
	return DataValue{
		Type:  wikibase.DatatypeMonolingualText.ValueType(),
		Value: MonolingualValue{Text: text, Language: language},
	}
}

// StringValue encodes a plain string; url and external-id values use it too.
func StringValue(s string) DataValue {
	return DataValue{Type: "string", Value: s}
}

// Encode converts a form value into the datavalue for datatype. Coordinates
// arrive as "lat,lon".
func Encode(datatype wikibase.Datatype, raw, language string) (DataValue, error) {
	switch datatype {
	case wikibase.DatatypeItem:
		return ItemValue(raw)
	case wikibase.DatatypeQuantity:
		return QuantityValueOf(raw)
	case wikibase.DatatypeTime:
		return TimeValueOf(raw)
	case wikibase.DatatypeGlobeCoordinate:
		lat, lon, ok := strings.Cut(raw, ",")
		if !ok {
			return DataValue{}, errCoordinate
		}
		return CoordinateValueOf(lat, lon)
	case wikibase.DatatypeMonolingualText:
		return MonolingualValueOf(raw, language), nil
	default:
		return StringValue(raw), nil
	}
}

func valueSnak(property string, dv DataValue) Snak {
	v := dv
	return Snak{SnakType: SnakValue, Property: property, DataValue: &v}
}

func describe(label string, err error) string {
	if label == "" {
		return err.Error()
	}
	return fmt.Sprintf("%s %s", label, err.Error())
}
