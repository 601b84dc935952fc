// Package sparql builds and executes the graph queries used to inspect
// exemplar items.
//
// Query text lives in an embedded query bank (queries.rq) and is rendered
// through github.com/knakk/sparql. Every identifier is validated against the
// Wikibase id format before it reaches a template, so the bank never sees
// user-controlled text. Results are decoded with sparql.ParseJSON and flattened
// into Rows of plain string bindings.
package sparql
