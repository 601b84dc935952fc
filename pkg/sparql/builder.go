package sparql

import (
	"bytes"
	_ "embed"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	ksparql "github.com/knakk/sparql"

	"github.com/goliatone/go-wikiform/pkg/wikibase"
)

//go:embed queries.rq
var queryBankSource []byte

var (
	bankOnce sync.Once
	bank     ksparql.Bank
)

func queryBank() ksparql.Bank {
	bankOnce.Do(func() {
		bank = ksparql.LoadBank(bytes.NewReader(queryBankSource))
	})
	return bank
}

// Query bank tags.
const (
	tagInstanceOf         = "instance-of"
	tagExemplarProperties = "exemplar-properties"
	tagPropertyQualifiers = "property-qualifiers"
	tagPropertyValues     = "property-values"
	tagQualifierValues    = "qualifier-values"
	tagItemData           = "item-data"
	tagLabelDescription   = "label-description"
	tagEntityLabel        = "entity-label"
)

var languagePattern = regexp.MustCompile(`^[a-z]{2,3}(-[a-z0-9]+)*$`)

// Builder renders the graph queries for one Wikibase instance. It is pure:
// the same inputs always produce the same query text.
type Builder struct {
	base       string
	instanceOf string
	language   string
}

// BuilderOption customises a Builder.
type BuilderOption func(*Builder)

// WithLanguage sets the label language (default "en").
func WithLanguage(lang string) BuilderOption {
	return func(b *Builder) {
		if trimmed := strings.TrimSpace(lang); trimmed != "" {
			b.language = trimmed
		}
	}
}

// NewBuilder validates the base URL and the type-classification property and
// returns a Builder for them.
func NewBuilder(baseURL, instanceOf string, options ...BuilderOption) (*Builder, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	parsed, err := url.ParseRequestURI(base)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("sparql: invalid wikibase url %q", baseURL)
	}
	if strings.ContainsAny(base, "<>\"{}|\\^` \t\n") {
		return nil, fmt.Errorf("sparql: wikibase url %q contains characters not allowed in an IRI", baseURL)
	}
	if err := validateProperty(instanceOf); err != nil {
		return nil, err
	}

	b := &Builder{
		base:       base,
		instanceOf: instanceOf,
		language:   wikibase.DefaultLanguage,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(b)
	}
	if !languagePattern.MatchString(b.language) {
		return nil, fmt.Errorf("sparql: invalid language %q", b.language)
	}
	return b, nil
}

// InstanceOfProperty returns the configured type-classification property.
func (b *Builder) InstanceOfProperty() string {
	return b.instanceOf
}

// BaseURL returns the Wikibase base URL used in prefixes.
func (b *Builder) BaseURL() string {
	return b.base
}

type params struct {
	Base       string
	InstanceOf string
	Language   string
	Item       string
	Property   string
	Type       string
}

func (b *Builder) params() params {
	return params{Base: b.base, InstanceOf: b.instanceOf, Language: b.language}
}

func (b *Builder) prepare(tag string, p params) (string, error) {
	query, err := queryBank().Prepare(tag, p)
	if err != nil {
		return "", fmt.Errorf("sparql: prepare %s: %w", tag, err)
	}
	return query, nil
}

// InstanceOf returns the type and type label of itemID, limited to one row.
func (b *Builder) InstanceOf(itemID string) (string, error) {
	if err := validateItem(itemID); err != nil {
		return "", err
	}
	p := b.params()
	p.Item = itemID
	return b.prepare(tagInstanceOf, p)
}

// ExemplarProperties lists every property used on the exemplar with its
// label, description and datatype.
func (b *Builder) ExemplarProperties(exemplarID string) (string, error) {
	if err := validateItem(exemplarID); err != nil {
		return "", err
	}
	p := b.params()
	p.Item = exemplarID
	return b.prepare(tagExemplarProperties, p)
}

// PropertyQualifiers crosses every statement of propertyID on the exemplar
// with the qualifiers present on that statement. The main value's own type is
// returned when it has one.
func (b *Builder) PropertyQualifiers(exemplarID, propertyID string) (string, error) {
	if err := validateItem(exemplarID); err != nil {
		return "", err
	}
	if err := validateProperty(propertyID); err != nil {
		return "", err
	}
	p := b.params()
	p.Item = exemplarID
	p.Property = propertyID
	return b.prepare(tagPropertyQualifiers, p)
}

// PropertyValues returns every entity that shares a type with the exemplar's
// current values for propertyID, together with the values already used by
// entities of typeValue.
func (b *Builder) PropertyValues(propertyID, typeValue, exemplarID string) (string, error) {
	if err := validateProperty(propertyID); err != nil {
		return "", err
	}
	if err := validateItem(typeValue); err != nil {
		return "", err
	}
	if err := validateItem(exemplarID); err != nil {
		return "", err
	}
	p := b.params()
	p.Property = propertyID
	p.Type = typeValue
	p.Item = exemplarID
	return b.prepare(tagPropertyValues, p)
}

// QualifierValues returns every entity sharing a type with any value ever
// used as qualifierID, plus those values themselves.
func (b *Builder) QualifierValues(qualifierID string) (string, error) {
	if err := validateProperty(qualifierID); err != nil {
		return "", err
	}
	p := b.params()
	p.Property = qualifierID
	return b.prepare(tagQualifierValues, p)
}

// ItemData dumps every statement of itemID with its qualifiers.
func (b *Builder) ItemData(itemID string) (string, error) {
	if err := validateItem(itemID); err != nil {
		return "", err
	}
	p := b.params()
	p.Item = itemID
	return b.prepare(tagItemData, p)
}

// LabelDescription returns the label and description of itemID.
func (b *Builder) LabelDescription(itemID string) (string, error) {
	if err := validateItem(itemID); err != nil {
		return "", err
	}
	p := b.params()
	p.Item = itemID
	return b.prepare(tagLabelDescription, p)
}

// EntityLabel returns the label of an arbitrary item.
func (b *Builder) EntityLabel(itemID string) (string, error) {
	if err := validateItem(itemID); err != nil {
		return "", err
	}
	p := b.params()
	p.Item = itemID
	return b.prepare(tagEntityLabel, p)
}

func validateItem(id string) error {
	if err := wikibase.ValidateItemID(id); err != nil {
		return fmt.Errorf("sparql: %w", err)
	}
	return nil
}

func validateProperty(id string) error {
	if err := wikibase.ValidateEntityID(id); err != nil {
		return fmt.Errorf("sparql: %w", err)
	}
	if !strings.HasPrefix(id, "P") {
		return fmt.Errorf("sparql: %w: %q is not a property", wikibase.ErrInvalidEntityID, id)
	}
	return nil
}
