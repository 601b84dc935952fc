// Package orchestrator wires discovery, schema building, form description,
// rendering and submission into one pipeline keyed by a FormSession.
package orchestrator
