package sparql

import (
	"fmt"
	"net/http"
)

// QueryError reports a failed round trip to the graph endpoint: a transport
// failure (Status 0), a non-2xx status, or a body that is not a SPARQL JSON
// results document (Malformed).
type QueryError struct {
	Status    int
	Body      string
	Malformed bool
	Err       error
}

func (e *QueryError) Error() string {
	switch {
	case e.Malformed:
		if e.Err != nil {
			return fmt.Sprintf("sparql: malformed response: %v", e.Err)
		}
		return "sparql: malformed response"
	case e.Status != 0:
		if e.Body != "" {
			return fmt.Sprintf("sparql: query failed with status %d: %s", e.Status, e.Body)
		}
		return fmt.Sprintf("sparql: query failed with status %d", e.Status)
	case e.Err != nil:
		return fmt.Sprintf("sparql: query failed: %v", e.Err)
	default:
		return "sparql: query failed"
	}
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the same query may succeed: transport
// failures and the gateway/throttling statuses. A 500 is treated as a query
// problem and is not retried.
func (e *QueryError) Temporary() bool {
	if e.Malformed {
		return false
	}
	switch e.Status {
	case 0, http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
