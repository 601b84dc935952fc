package model

import (
	internalmodel "github.com/goliatone/go-wikiform/internal/model"
	"github.com/goliatone/go-wikiform/pkg/itemdata"
	"github.com/goliatone/go-wikiform/pkg/schema"
)

// BuildOption configures a Build call.
type BuildOption func(*buildOptions)

type buildOptions struct {
	input           internalmodel.Input
	labeler         func(string) string
	title           string
	basicTitle      string
	propertiesTitle string
}

// WithMode sets the form mode. Forms built with a snapshot default to edit.
func WithMode(mode schema.Mode) BuildOption {
	return func(o *buildOptions) {
		o.input.Mode = mode
	}
}

// WithEntityType records the configured entity-type key.
func WithEntityType(key string) BuildOption {
	return func(o *buildOptions) {
		o.input.EntityType = key
	}
}

// WithExemplar records the exemplar the schema was inferred from.
func WithExemplar(id string) BuildOption {
	return func(o *buildOptions) {
		o.input.ExemplarID = id
	}
}

// WithType records the discovered instance-of value and its label.
func WithType(value, label string) BuildOption {
	return func(o *buildOptions) {
		o.input.TypeValue = value
		o.input.TypeLabel = label
	}
}

// WithItemID records the item being edited.
func WithItemID(id string) BuildOption {
	return func(o *buildOptions) {
		o.input.ItemID = id
	}
}

// WithLabeler overrides how entity-type keys become titles.
func WithLabeler(labeler func(string) string) BuildOption {
	return func(o *buildOptions) {
		o.labeler = labeler
	}
}

// WithTitle pins the form title.
func WithTitle(title string) BuildOption {
	return func(o *buildOptions) {
		o.title = title
	}
}

// WithSectionTitles renames the basic and properties sections. Empty
// titles keep the defaults.
func WithSectionTitles(basic, properties string) BuildOption {
	return func(o *buildOptions) {
		o.basicTitle = basic
		o.propertiesTitle = properties
	}
}

// Build derives the form description for s, prefilled from snapshot when it
// is non-nil. It performs no I/O and returns the same description for the
// same inputs.
func Build(s schema.Schema, snapshot *itemdata.Snapshot, opts ...BuildOption) FormDescription {
	cfg := buildOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	cfg.input.Schema = s
	cfg.input.Snapshot = snapshot
	if cfg.input.Mode == "" {
		cfg.input.Mode = schema.ModeCreate
		if snapshot != nil {
			cfg.input.Mode = schema.ModeEdit
		}
	}
	return internalmodel.New(internalmodel.Options{
		Labeler:         cfg.labeler,
		Title:           cfg.title,
		BasicTitle:      cfg.basicTitle,
		PropertiesTitle: cfg.propertiesTitle,
	}).Build(cfg.input)
}
