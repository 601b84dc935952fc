package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WIKIFORM_"

// FromEnv returns a partial Config built from WIKIFORM_* variables, suitable
// for Merge. lookup defaults to os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) Config {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(name string) string {
		v, _ := lookup(EnvPrefix + name)
		return strings.TrimSpace(v)
	}

	var cfg Config
	cfg.Wikibase.URL = get("WIKIBASE_URL")
	cfg.Wikibase.SPARQLEndpoint = get("SPARQL_ENDPOINT")
	cfg.Wikibase.APIEndpoint = get("API_ENDPOINT")
	cfg.Properties.InstanceOf = get("INSTANCE_OF")
	cfg.Server.Addr = get("ADDR")
	cfg.Server.SubmitURL = get("SUBMIT_URL")
	if d, err := time.ParseDuration(get("QUERY_TIMEOUT")); err == nil {
		cfg.Query.Timeout = d
	}
	if n, err := strconv.Atoi(get("QUERY_RETRIES")); err == nil {
		cfg.Query.Retries = n
	}
	if d, err := time.ParseDuration(get("CACHE_TTL")); err == nil {
		cfg.Cache.TTL = d
	}
	return cfg
}
