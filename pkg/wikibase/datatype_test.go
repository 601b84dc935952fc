package wikibase

import "testing"

func TestParseDatatype(t *testing.T) {
	cases := map[string]Datatype{
		"http://wikiba.se/ontology#WikibaseItem":    DatatypeItem,
		"http://wikiba.se/ontology#GlobeCoordinate": DatatypeGlobeCoordinate,
		"Quantity":                                  DatatypeQuantity,
		" http://wikiba.se/ontology#Time ":          DatatypeTime,
		"http://wikiba.se/ontology#Math":            Datatype("Math"),
	}
	for in, want := range cases {
		if got := ParseDatatype(in); got != want {
			t.Fatalf("ParseDatatype(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDatatypeValueType(t *testing.T) {
	cases := map[Datatype]string{
		DatatypeItem:            "wikibase-entityid",
		DatatypeString:          "string",
		DatatypeURL:             "string",
		DatatypeExternalID:      "string",
		DatatypeQuantity:        "quantity",
		DatatypeTime:            "time",
		DatatypeGlobeCoordinate: "globecoordinate",
		DatatypeMonolingualText: "monolingualtext",
		Datatype("Math"):        "string",
	}
	for dt, want := range cases {
		if got := dt.ValueType(); got != want {
			t.Fatalf("%s.ValueType() = %q, want %q", dt, got, want)
		}
	}
	if Datatype("Math").Known() {
		t.Fatalf("unexpected known datatype")
	}
}
