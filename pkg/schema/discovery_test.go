package schema_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-wikiform/pkg/schema"
	"github.com/goliatone/go-wikiform/pkg/sparql"
	"github.com/goliatone/go-wikiform/pkg/testsupport"
	"github.com/goliatone/go-wikiform/pkg/wikibase"
)

func newDiscoverer(t *testing.T, endpoint sparql.Executor, exemplars map[string]string) *schema.Discoverer {
	t.Helper()
	d, err := schema.NewDiscoverer(newQueries(t), endpoint, schema.WithExemplars(exemplars))
	if err != nil {
		t.Fatalf("discoverer: %v", err)
	}
	return d
}

func TestDiscoverer_TypeOf(t *testing.T) {
	endpoint := testsupport.NewFakeEndpoint()
	endpoint.OnInstanceOf("Q507").Return(sparql.Row{
		"instanceOf":      testsupport.Entity("Q100"),
		"instanceOfLabel": testsupport.Literal("archaeological site"),
	})
	d := newDiscoverer(t, endpoint, nil)

	got, err := d.TypeOf(context.Background(), "Q507")
	if err != nil {
		t.Fatalf("type of: %v", err)
	}
	if diff := cmp.Diff(schema.TypeInfo{ID: "Q100", Label: "archaeological site"}, got); diff != "" {
		t.Fatalf("type mismatch (-want +got):\n%s", diff)
	}

	if _, err := d.TypeOf(context.Background(), "Q999"); !errors.Is(err, schema.ErrTypeNotFound) {
		t.Fatalf("expected ErrTypeNotFound, got %v", err)
	}
}

func TestDiscoverer_TypeOfSurfacesQueryErrors(t *testing.T) {
	endpoint := testsupport.NewFakeEndpoint()
	endpoint.OnInstanceOf("Q507").Fail(&sparql.QueryError{Status: 500})
	d := newDiscoverer(t, endpoint, nil)

	_, err := d.TypeOf(context.Background(), "Q507")
	var qerr *sparql.QueryError
	if !errors.As(err, &qerr) || qerr.Status != 500 {
		t.Fatalf("expected wrapped QueryError, got %v", err)
	}
}

func TestDiscoverer_ExemplarProperties(t *testing.T) {
	endpoint := testsupport.NewFakeEndpoint()
	endpoint.OnExemplarProperties("Q507").Return(
		sparql.Row{
			"property":            testsupport.Entity("P93"),
			"propertyLabel":       testsupport.Literal("located in"),
			"propertyDescription": testsupport.Literal("administrative unit"),
			"datatype":            testsupport.Datatype("WikibaseItem"),
		},
		sparql.Row{
			"property": testsupport.Entity("P12"),
			"datatype": testsupport.Datatype("GlobeCoordinate"),
		},
	)
	d := newDiscoverer(t, endpoint, nil)

	got, err := d.ExemplarProperties(context.Background(), "Q507")
	if err != nil {
		t.Fatalf("properties: %v", err)
	}
	want := []schema.PropertyRow{
		{ID: "P93", Label: "located in", Description: "administrative unit", Datatype: wikibase.DatatypeItem},
		{ID: "P12", Label: "P12", Datatype: wikibase.DatatypeGlobeCoordinate},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscoverer_FindExemplar(t *testing.T) {
	endpoint := testsupport.NewFakeEndpoint()
	endpoint.OnInstanceOf("Q10").Fail(errors.New("network down"))
	endpoint.OnInstanceOf("Q20").Return(sparql.Row{"instanceOf": testsupport.Entity("Q5")})
	endpoint.OnInstanceOf("Q30").Return(sparql.Row{"instanceOf": testsupport.Entity("Q100")})

	d := newDiscoverer(t, endpoint, map[string]string{
		"Archaeological_Site": "Q30",
		"Artifact":            "Q10",
		"Human":               "Q20",
	})

	key, id, err := d.FindExemplar(context.Background(), "Q100")
	if err != nil {
		t.Fatalf("find exemplar: %v", err)
	}
	if key != "Archaeological_Site" || id != "Q30" {
		t.Fatalf("unexpected exemplar %s/%s", key, id)
	}

	if _, _, err := d.FindExemplar(context.Background(), "Q404"); !errors.Is(err, schema.ErrNoExemplar) {
		t.Fatalf("expected ErrNoExemplar, got %v", err)
	}

	if diff := cmp.Diff([]string{"Archaeological_Site", "Artifact", "Human"}, d.Exemplars()); diff != "" {
		t.Fatalf("exemplar order mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscoverer_LabelFor(t *testing.T) {
	endpoint := testsupport.NewFakeEndpoint()
	endpoint.OnEntityLabel("Q42").Return(sparql.Row{"label": testsupport.Literal("Douglas")})
	d := newDiscoverer(t, endpoint, nil)

	got, err := d.LabelFor(context.Background(), "Q42")
	if err != nil || got != "Douglas" {
		t.Fatalf("expected Douglas, got %q (%v)", got, err)
	}
	got, err = d.LabelFor(context.Background(), "Q43")
	if err != nil || got != "Q43" {
		t.Fatalf("expected id fallback, got %q (%v)", got, err)
	}
	if _, err := d.LabelFor(context.Background(), "Q1 }"); !errors.Is(err, wikibase.ErrInvalidEntityID) {
		t.Fatalf("expected invalid id error, got %v", err)
	}
}

func TestDiscoverer_ItemRows(t *testing.T) {
	endpoint := testsupport.NewFakeEndpoint()
	endpoint.OnItemData("Q42").Return(sparql.Row{"property": testsupport.Entity("P80")})
	endpoint.OnLabelDescription("Q42").Return(sparql.Row{"label": testsupport.Literal("Site")})
	d := newDiscoverer(t, endpoint, nil)

	data, labels, err := d.ItemRows(context.Background(), "Q42")
	if err != nil {
		t.Fatalf("item rows: %v", err)
	}
	if len(data) != 1 || len(labels) != 1 {
		t.Fatalf("unexpected rows: %d data, %d labels", len(data), len(labels))
	}
}
