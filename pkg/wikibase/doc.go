// Package wikibase holds the small vocabulary shared by every stage of the
// form pipeline: entity identifiers, entity and statement URIs, and the
// property datatypes a Wikibase instance reports through wikibase:propertyType.
package wikibase
