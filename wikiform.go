// Package wikiform builds data-entry forms for Wikibase entities from exemplar
// items. The heavy lifting lives in pkg/orchestrator; this package re-exports
// the pieces most callers need.
package wikiform

import (
	"context"

	"github.com/goliatone/go-wikiform/pkg/config"
	"github.com/goliatone/go-wikiform/pkg/orchestrator"
	"github.com/goliatone/go-wikiform/pkg/render"
)

// FormSession aliases orchestrator.FormSession.
type FormSession = orchestrator.FormSession

// RenderOptions describes per-request overrides that renderers can use to
// prefill values or surface server-side validation errors.
type RenderOptions = render.RenderOptions

// FieldSubset aliases render.FieldSubset for callers rendering only some
// sections or properties.
type FieldSubset = render.FieldSubset

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	return orchestrator.New(options...)
}

// GenerateHTML opens a create form for entityType and renders it with the
// named renderer ("" selects the default HTML renderer).
func GenerateHTML(ctx context.Context, cfg config.Config, entityType, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	o, err := orchestrator.New(append([]orchestrator.Option{orchestrator.WithConfig(cfg)}, options...)...)
	if err != nil {
		return nil, err
	}
	session, err := o.OpenCreate(ctx, entityType, false)
	if err != nil {
		return nil, err
	}
	out, _, err := o.Render(ctx, session, rendererName, render.RenderOptions{})
	return out, err
}

// GenerateEditHTML is GenerateHTML for an existing item.
func GenerateEditHTML(ctx context.Context, cfg config.Config, itemID, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	o, err := orchestrator.New(append([]orchestrator.Option{orchestrator.WithConfig(cfg)}, options...)...)
	if err != nil {
		return nil, err
	}
	session, err := o.OpenEdit(ctx, itemID, false)
	if err != nil {
		return nil, err
	}
	out, _, err := o.Render(ctx, session, rendererName, render.RenderOptions{})
	return out, err
}
