package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-wikiform/pkg/wikibase"
)

// Config is the form generator configuration document. The wikibase,
// properties and exemplars sections are the contract shared with the browser
// deployment; the remaining sections carry runtime settings.
type Config struct {
	Wikibase   WikibaseConfig      `yaml:"wikibase" json:"wikibase"`
	Properties PropertiesConfig    `yaml:"properties" json:"properties"`
	Exemplars  map[string]Exemplar `yaml:"exemplars" json:"exemplars"`
	Query      QueryConfig         `yaml:"query" json:"query"`
	Cache      CacheConfig         `yaml:"cache" json:"cache"`
	Server     ServerConfig        `yaml:"server" json:"server"`
	Strategies StrategiesConfig    `yaml:"strategies" json:"strategies"`
}

// WikibaseConfig points at the Wikibase instance.
type WikibaseConfig struct {
	URL            string `yaml:"url" json:"url"`
	SPARQLEndpoint string `yaml:"sparqlEndpoint" json:"sparqlEndpoint"`
	// APIEndpoint is the MediaWiki action API used by the write proxy. Defaults
	// to <url>/w/api.php.
	APIEndpoint string `yaml:"apiEndpoint,omitempty" json:"apiEndpoint,omitempty"`
}

// PropertiesConfig names the properties with special meaning.
type PropertiesConfig struct {
	InstanceOf string `yaml:"instanceOf" json:"instanceOf"`
}

// Exemplar names the item used as a live template for an entity type.
type Exemplar struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
}

// QueryConfig tunes the SPARQL client.
type QueryConfig struct {
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	Retries int           `yaml:"retries" json:"retries"`
}

// CacheConfig tunes the schema cache.
type CacheConfig struct {
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
	Disabled bool          `yaml:"disabled" json:"disabled"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
	// Proxy mounts the write proxy routes on the same router.
	Proxy bool `yaml:"proxy" json:"proxy"`
	// SubmitURL is the base URL of the write proxy used by the form service.
	// Empty means the service talks to its own proxy routes.
	SubmitURL string `yaml:"submitURL,omitempty" json:"submitURL,omitempty"`
	// SessionTTL bounds how long a proxy session stays valid without use.
	SessionTTL time.Duration `yaml:"sessionTTL" json:"sessionTTL"`
	// AssetsPrefix is the URL prefix stylesheet and runtime links point at.
	// Empty inlines the stylesheet into every page.
	AssetsPrefix string `yaml:"assetsPrefix,omitempty" json:"assetsPrefix,omitempty"`
}

// StrategiesConfig points at per-type overlay documents.
type StrategiesConfig struct {
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty"`
}

// DefaultConfig returns the runtime defaults. Wikibase connection details and
// exemplars have no sensible default and must come from a document.
func DefaultConfig() Config {
	return Config{
		Properties: PropertiesConfig{InstanceOf: "P1"},
		Exemplars:  map[string]Exemplar{},
		Query: QueryConfig{
			Timeout: 30 * time.Second,
			Retries: 2,
		},
		Cache: CacheConfig{TTL: time.Hour},
		Server: ServerConfig{
			Addr:       ":3000",
			Proxy:      true,
			SessionTTL: time.Hour,
		},
	}
}

// Parse decodes a JSON or YAML document on top of DefaultConfig and validates
// the result. source is only used in error messages.
func Parse(data []byte, source string) (Config, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Config{}, fmt.Errorf("config: %s is empty", source)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", source, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", source, err)
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Wikibase.URL = strings.TrimRight(strings.TrimSpace(c.Wikibase.URL), "/")
	c.Wikibase.SPARQLEndpoint = strings.TrimSpace(c.Wikibase.SPARQLEndpoint)
	c.Wikibase.APIEndpoint = strings.TrimSpace(c.Wikibase.APIEndpoint)
	if c.Wikibase.APIEndpoint == "" && c.Wikibase.URL != "" {
		c.Wikibase.APIEndpoint = c.Wikibase.URL + "/w/api.php"
	}
	c.Properties.InstanceOf = strings.TrimSpace(c.Properties.InstanceOf)
	for key, ex := range c.Exemplars {
		ex.ID = strings.TrimSpace(ex.ID)
		c.Exemplars[key] = ex
	}
}

// Validate performs presence checks plus id format checks on the values that
// end up inside queries.
func (c Config) Validate() error {
	var errs []error
	if c.Wikibase.URL == "" {
		errs = append(errs, errors.New("wikibase.url is required"))
	} else if _, err := url.ParseRequestURI(c.Wikibase.URL); err != nil {
		errs = append(errs, fmt.Errorf("wikibase.url: %w", err))
	}
	if c.Wikibase.SPARQLEndpoint == "" {
		errs = append(errs, errors.New("wikibase.sparqlEndpoint is required"))
	} else if _, err := url.ParseRequestURI(c.Wikibase.SPARQLEndpoint); err != nil {
		errs = append(errs, fmt.Errorf("wikibase.sparqlEndpoint: %w", err))
	}
	if c.Properties.InstanceOf == "" {
		errs = append(errs, errors.New("properties.instanceOf is required"))
	} else if !strings.HasPrefix(c.Properties.InstanceOf, "P") || !wikibase.IsEntityID(c.Properties.InstanceOf) {
		errs = append(errs, fmt.Errorf("properties.instanceOf %q is not a property id", c.Properties.InstanceOf))
	}
	for _, key := range c.ExemplarKeys() {
		if err := wikibase.ValidateItemID(c.Exemplars[key].ID); err != nil {
			errs = append(errs, fmt.Errorf("exemplars.%s: %w", key, err))
		}
	}
	if c.Query.Retries < 0 {
		errs = append(errs, errors.New("query.retries must not be negative"))
	}
	return errors.Join(errs...)
}

// Merge overlays non-zero values from other on top of c.
func (c Config) Merge(other Config) Config {
	out := c
	if other.Wikibase.URL != "" {
		out.Wikibase.URL = other.Wikibase.URL
	}
	if other.Wikibase.SPARQLEndpoint != "" {
		out.Wikibase.SPARQLEndpoint = other.Wikibase.SPARQLEndpoint
	}
	if other.Wikibase.APIEndpoint != "" {
		out.Wikibase.APIEndpoint = other.Wikibase.APIEndpoint
	}
	if other.Properties.InstanceOf != "" {
		out.Properties.InstanceOf = other.Properties.InstanceOf
	}
	if len(other.Exemplars) > 0 {
		merged := make(map[string]Exemplar, len(c.Exemplars)+len(other.Exemplars))
		for k, v := range c.Exemplars {
			merged[k] = v
		}
		for k, v := range other.Exemplars {
			merged[k] = v
		}
		out.Exemplars = merged
	}
	if other.Query.Timeout > 0 {
		out.Query.Timeout = other.Query.Timeout
	}
	if other.Query.Retries > 0 {
		out.Query.Retries = other.Query.Retries
	}
	if other.Cache.TTL > 0 {
		out.Cache.TTL = other.Cache.TTL
	}
	if other.Cache.Disabled {
		out.Cache.Disabled = true
	}
	if other.Server.Addr != "" {
		out.Server.Addr = other.Server.Addr
	}
	if other.Server.SubmitURL != "" {
		out.Server.SubmitURL = other.Server.SubmitURL
	}
	if other.Server.SessionTTL > 0 {
		out.Server.SessionTTL = other.Server.SessionTTL
	}
	if other.Server.AssetsPrefix != "" {
		out.Server.AssetsPrefix = other.Server.AssetsPrefix
	}
	if other.Strategies.Dir != "" {
		out.Strategies.Dir = other.Strategies.Dir
	}
	return out
}

// ExemplarKeys returns the configured entity type keys in sorted order.
func (c Config) ExemplarKeys() []string {
	keys := make([]string, 0, len(c.Exemplars))
	for key := range c.Exemplars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Exemplar returns the exemplar configured for an entity type key.
func (c Config) Exemplar(entityType string) (Exemplar, bool) {
	ex, ok := c.Exemplars[entityType]
	return ex, ok
}
