package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/goliatone/go-wikiform/pkg/sparql"
)

// BaseURL is the Wikibase base URL used by fixtures.
const BaseURL = "https://wiki.example.org"

// Entity returns an IRI binding for an entity id.
func Entity(id string) sparql.Binding {
	return sparql.Binding{Value: BaseURL + "/entity/" + id, IsEntityReference: true}
}

// Statement returns an IRI binding for a statement GUID.
func Statement(guid string) sparql.Binding {
	return sparql.Binding{Value: BaseURL + "/entity/statement/" + guid, IsEntityReference: true}
}

// Datatype returns the propertyType IRI binding for a datatype name.
func Datatype(name string) sparql.Binding {
	return sparql.Binding{Value: "http://wikiba.se/ontology#" + name, IsEntityReference: true}
}

// Literal returns a literal binding.
func Literal(value string) sparql.Binding {
	return sparql.Binding{Value: value}
}

// Route answers every query containing all of its fragments and none of its
// exclusions.
type Route struct {
	fragments []string
	excludes  []string
	rows      []sparql.Row
	err       error
}

// Return sets the rows the route answers with.
func (r *Route) Return(rows ...sparql.Row) *Route {
	r.rows = rows
	return r
}

// Fail makes the route answer with err.
func (r *Route) Fail(err error) *Route {
	r.err = err
	return r
}

// Except skips the route for queries containing fragment.
func (r *Route) Except(fragment string) *Route {
	r.excludes = append(r.excludes, fragment)
	return r
}

func (r *Route) matches(query string) bool {
	for _, f := range r.fragments {
		if !strings.Contains(query, f) {
			return false
		}
	}
	for _, f := range r.excludes {
		if strings.Contains(query, f) {
			return false
		}
	}
	return true
}

// FakeEndpoint is an in-memory sparql.Executor. Queries without a matching
// route return no rows. Routes are checked in registration order.
type FakeEndpoint struct {
	mu      sync.Mutex
	routes  []*Route
	queries []string
}

var _ sparql.Executor = (*FakeEndpoint)(nil)

// NewFakeEndpoint returns an empty endpoint.
func NewFakeEndpoint() *FakeEndpoint {
	return &FakeEndpoint{}
}

// On registers a route for queries containing every fragment.
func (f *FakeEndpoint) On(fragments ...string) *Route {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := &Route{fragments: fragments}
	f.routes = append(f.routes, r)
	return r
}

// OnInstanceOf routes the instance-of lookup for item.
func (f *FakeEndpoint) OnInstanceOf(item string) *Route {
	return f.On("wd:"+item+" wdt:", "?instanceOf .")
}

// OnExemplarProperties routes the property listing of exemplar.
func (f *FakeEndpoint) OnExemplarProperties(exemplar string) *Route {
	return f.On("wd:" + exemplar + " ?propertyDirect")
}

// OnPropertyQualifiers routes the qualifier lookup of property on exemplar.
func (f *FakeEndpoint) OnPropertyQualifiers(exemplar, property string) *Route {
	return f.On("wd:" + exemplar + " p:" + property + " ?statement")
}

// OnPropertyValues routes the value lookup of an item property.
func (f *FakeEndpoint) OnPropertyValues(property string) *Route {
	return f.On("wdt:" + property + " ?seed")
}

// OnQualifierValues routes the value lookup of an item qualifier.
func (f *FakeEndpoint) OnQualifierValues(qualifier string) *Route {
	return f.On("pq:" + qualifier + " ?seed")
}

// OnItemData routes the statement dump of item.
func (f *FakeEndpoint) OnItemData(item string) *Route {
	return f.On("wd:" + item + " ?p ?statement")
}

// OnLabelDescription routes the label and description lookup of item.
func (f *FakeEndpoint) OnLabelDescription(item string) *Route {
	return f.On("wd:"+item+" rdfs:label ?label", "schema:description")
}

// OnEntityLabel routes the bare label lookup of item.
func (f *FakeEndpoint) OnEntityLabel(item string) *Route {
	return f.On("wd:"+item+" rdfs:label ?label").Except("schema:description")
}

// Execute answers from the first matching route.
func (f *FakeEndpoint) Execute(ctx context.Context, query string) ([]sparql.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	for _, r := range f.routes {
		if !r.matches(query) {
			continue
		}
		if r.err != nil {
			return nil, r.err
		}
		return append([]sparql.Row(nil), r.rows...), nil
	}
	return nil, nil
}

// Queries returns every query received so far.
func (f *FakeEndpoint) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// Count returns how many received queries contain fragment.
func (f *FakeEndpoint) Count(fragment string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, q := range f.queries {
		if strings.Contains(q, fragment) {
			n++
		}
	}
	return n
}

// Handler serves the routes as a SPARQL JSON endpoint so tests can drive a
// real sparql.Client. Route errors carrying a QueryError status are written
// with that status; any other error is a 500.
func (f *FakeEndpoint) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rows, err := f.Execute(r.Context(), r.PostForm.Get("query"))
		if err != nil {
			status := http.StatusInternalServerError
			var qerr *sparql.QueryError
			if errors.As(err, &qerr) && qerr.Status != 0 {
				status = qerr.Status
			}
			http.Error(w, err.Error(), status)
			return
		}
		w.Header().Set("Content-Type", "application/sparql-results+json")
		_ = json.NewEncoder(w).Encode(encodeResults(rows))
	})
}

type jsonTerm struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type jsonResults struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]jsonTerm `json:"bindings"`
	} `json:"results"`
}

func encodeResults(rows []sparql.Row) jsonResults {
	var out jsonResults
	seen := make(map[string]struct{})
	out.Results.Bindings = make([]map[string]jsonTerm, 0, len(rows))
	for _, row := range rows {
		binding := make(map[string]jsonTerm, len(row))
		for name, b := range row {
			kind := "literal"
			if b.IsEntityReference {
				kind = "uri"
			}
			binding[name] = jsonTerm{Type: kind, Value: b.Value}
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				out.Head.Vars = append(out.Head.Vars, name)
			}
		}
		out.Results.Bindings = append(out.Results.Bindings, binding)
	}
	return out
}
