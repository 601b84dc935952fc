package config

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const jsonDocument = `{
  "wikibase": {
    "url": "https://timna-database.wikibase.cloud/",
    "sparqlEndpoint": "https://timna-database.wikibase.cloud/query/sparql"
  },
  "properties": {"instanceOf": "P1"},
  "exemplars": {
    "Archaeological_Site": {"id": "Q507"},
    "Human": {"id": "Q12", "label": "Human"}
  }
}`

func TestParseJSONDocument(t *testing.T) {
	cfg, err := Parse([]byte(jsonDocument), "config.json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	wantWikibase := WikibaseConfig{
		URL:            "https://timna-database.wikibase.cloud",
		SPARQLEndpoint: "https://timna-database.wikibase.cloud/query/sparql",
		APIEndpoint:    "https://timna-database.wikibase.cloud/w/api.php",
	}
	if diff := cmp.Diff(wantWikibase, cfg.Wikibase); diff != "" {
		t.Fatalf("wikibase mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Archaeological_Site", "Human"}, cfg.ExemplarKeys()); diff != "" {
		t.Fatalf("exemplar keys mismatch (-want +got):\n%s", diff)
	}
	if cfg.Query.Timeout != 30*time.Second || cfg.Cache.TTL != time.Hour {
		t.Fatalf("defaults not applied: %+v %+v", cfg.Query, cfg.Cache)
	}
}

func TestParseYAMLDocumentWithRuntimeSettings(t *testing.T) {
	doc := `
wikibase:
  url: https://example.wikibase.cloud
  sparqlEndpoint: https://example.wikibase.cloud/query/sparql
properties:
  instanceOf: P31
exemplars:
  Human:
    id: Q5
query:
  timeout: 5s
  retries: 0
cache:
  ttl: 10m
`
	cfg, err := Parse([]byte(doc), "config.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Query.Timeout != 5*time.Second {
		t.Fatalf("timeout = %s", cfg.Query.Timeout)
	}
	if cfg.Query.Retries != 0 {
		t.Fatalf("retries = %d", cfg.Query.Retries)
	}
	if cfg.Cache.TTL != 10*time.Minute {
		t.Fatalf("ttl = %s", cfg.Cache.TTL)
	}
	ex, ok := cfg.Exemplar("Human")
	if !ok || ex.ID != "Q5" {
		t.Fatalf("exemplar lookup = %+v %v", ex, ok)
	}
}

func TestParseReportsAllViolations(t *testing.T) {
	doc := `{"properties": {"instanceOf": "Q1"}, "exemplars": {"Bad": {"id": "P12"}}}`
	_, err := Parse([]byte(doc), "bad.json")
	if err == nil {
		t.Fatalf("expected validation error")
	}
	msg := err.Error()
	for _, fragment := range []string{
		"wikibase.url is required",
		"wikibase.sparqlEndpoint is required",
		"properties.instanceOf",
		"exemplars.Bad",
	} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("error %q missing %q", msg, fragment)
		}
	}
}

func TestParseEmptyDocument(t *testing.T) {
	if _, err := Parse([]byte("  \n"), "empty.json"); err == nil {
		t.Fatalf("expected error for empty document")
	}
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Wikibase.URL = "https://a.example"
	base.Exemplars = map[string]Exemplar{"Human": {ID: "Q5"}}

	merged := base.Merge(Config{
		Wikibase:  WikibaseConfig{SPARQLEndpoint: "https://a.example/sparql"},
		Exemplars: map[string]Exemplar{"Site": {ID: "Q507"}},
		Query:     QueryConfig{Timeout: time.Second},
	})

	if merged.Wikibase.URL != "https://a.example" {
		t.Fatalf("url overwritten: %q", merged.Wikibase.URL)
	}
	if merged.Wikibase.SPARQLEndpoint != "https://a.example/sparql" {
		t.Fatalf("endpoint not merged: %q", merged.Wikibase.SPARQLEndpoint)
	}
	want := map[string]Exemplar{"Human": {ID: "Q5"}, "Site": {ID: "Q507"}}
	if diff := cmp.Diff(want, merged.Exemplars); diff != "" {
		t.Fatalf("exemplars mismatch (-want +got):\n%s", diff)
	}
	if merged.Query.Timeout != time.Second || merged.Query.Retries != 2 {
		t.Fatalf("query merge = %+v", merged.Query)
	}
	if len(base.Exemplars) != 1 {
		t.Fatalf("merge mutated receiver")
	}
}

func TestFromEnv(t *testing.T) {
	env := map[string]string{
		"WIKIFORM_WIKIBASE_URL":  "https://env.example",
		"WIKIFORM_QUERY_TIMEOUT": "2s",
		"WIKIFORM_QUERY_RETRIES": "4",
		"WIKIFORM_CACHE_TTL":     "bogus",
		"WIKIFORM_INSTANCE_OF":   "P31",
	}
	cfg := FromEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
	if cfg.Wikibase.URL != "https://env.example" || cfg.Properties.InstanceOf != "P31" {
		t.Fatalf("unexpected env config: %+v", cfg)
	}
	if cfg.Query.Timeout != 2*time.Second || cfg.Query.Retries != 4 {
		t.Fatalf("query = %+v", cfg.Query)
	}
	if cfg.Cache.TTL != 0 {
		t.Fatalf("invalid duration should be ignored, got %s", cfg.Cache.TTL)
	}
}

func TestParseSource(t *testing.T) {
	cases := []struct {
		in      string
		want    Source
		wantErr bool
	}{
		{in: "https://example.org/wikiform.yaml", want: Source{Kind: SourceKindURL, Location: "https://example.org/wikiform.yaml"}},
		{in: "HTTP://example.org/c.yaml", want: Source{Kind: SourceKindURL, Location: "http://example.org/c.yaml"}},
		{in: "config/./wikiform.yaml", want: Source{Kind: SourceKindFile, Location: "config/wikiform.yaml"}},
		{in: "https://", wantErr: true},
		{in: " ", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseSource(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseSource(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSource(%q): %v", tc.in, err)
			continue
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("ParseSource(%q) mismatch (-want +got):\n%s", tc.in, diff)
		}
	}
}
