package sparql

import "github.com/goliatone/go-wikiform/pkg/wikibase"

// Binding is one cell of a result row.
type Binding struct {
	Value             string `json:"value"`
	IsEntityReference bool   `json:"isEntityReference"`
}

// Row maps the query's output variables to their bindings. Unbound
// variables are absent.
type Row map[string]Binding

// Has reports whether the variable is bound.
func (r Row) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// Value returns the raw binding value, or "" when unbound.
func (r Row) Value(name string) string {
	return r[name].Value
}

// ID returns the entity id for IRI bindings and the raw value otherwise.
func (r Row) ID(name string) string {
	b, ok := r[name]
	if !ok {
		return ""
	}
	if b.IsEntityReference {
		return wikibase.IDFromURI(b.Value)
	}
	return b.Value
}

// Label returns the binding for name, falling back to fallback when the
// variable is unbound or empty.
func (r Row) Label(name, fallback string) string {
	if v := r.Value(name); v != "" {
		return v
	}
	return fallback
}
