package wikibase

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidEntityID is returned when an identifier does not look like an item
// (Q123) or property (P123) id.
var ErrInvalidEntityID = errors.New("wikibase: invalid entity id")

var (
	entityIDPattern = regexp.MustCompile(`^[QP]\d+$`)
	itemIDPattern   = regexp.MustCompile(`^Q\d+$`)
)

// IsEntityID reports whether id matches ^[QP]\d+$.
func IsEntityID(id string) bool {
	return entityIDPattern.MatchString(id)
}

// IsItemID reports whether id matches ^Q\d+$.
func IsItemID(id string) bool {
	return itemIDPattern.MatchString(id)
}

// ValidateEntityID returns ErrInvalidEntityID (wrapped with the offending
// value) when id is not an item or property id.
func ValidateEntityID(id string) error {
	if !IsEntityID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidEntityID, id)
	}
	return nil
}

// ValidateItemID is the item-only variant of ValidateEntityID.
func ValidateItemID(id string) error {
	if !IsItemID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidEntityID, id)
	}
	return nil
}

// NumericID returns the numeric part of an entity id ("Q42" -> 42).
func NumericID(id string) (int64, error) {
	if err := ValidateEntityID(id); err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(id[1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidEntityID, id)
	}
	return n, nil
}

// IDFromURI returns the last path segment of an entity or property URI
// ("https://example.wikibase.cloud/entity/Q42" -> "Q42"). Values without a
// slash are returned unchanged.
func IDFromURI(uri string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(uri), "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

// IsEntityURI reports whether uri points at an entity resource.
func IsEntityURI(uri string) bool {
	return strings.Contains(uri, "/entity/") && IsEntityID(IDFromURI(uri))
}

// StatementID extracts the statement GUID from a statement URI
// (".../entity/statement/Q827-5A0B..." -> "Q827-5A0B..."). URIs that do not
// contain a /statement/ segment are returned unchanged.
func StatementID(uri string) string {
	const marker = "/statement/"
	if idx := strings.LastIndex(uri, marker); idx >= 0 {
		return uri[idx+len(marker):]
	}
	return uri
}

// StatementGUID converts a statement id taken from a URI
// ("Q827-5A0B...") into the form the write API expects ("Q827$5A0B...").
// Ids that already carry a "$" are returned unchanged.
func StatementGUID(id string) string {
	if id == "" || strings.Contains(id, "$") {
		return id
	}
	entity, rest, ok := strings.Cut(id, "-")
	if !ok || !IsEntityID(entity) {
		return id
	}
	return entity + "$" + rest
}

// EntityURI builds the concept URI for id under the given Wikibase base URL.
func EntityURI(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/entity/" + id
}
