package components

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"slices"
	"strconv"
	"strings"

	"github.com/goliatone/go-wikiform/pkg/model"
	"github.com/goliatone/go-wikiform/pkg/schema"
)

// IndexToken stands in for the entry index inside the <template> the
// runtime clones when the user adds an entry.
const IndexToken = "__INDEX__"

func groupRenderer(buf *bytes.Buffer, field model.Field, data ComponentData) error {
	g := field.Group
	if g == nil {
		return fmt.Errorf("components: field %q has no group", field.Name)
	}
	if data.RenderChild == nil {
		return fmt.Errorf("components: group %q needs a child renderer", field.Name)
	}

	qmap, err := json.Marshal(g.QualifierMap)
	if err != nil {
		return fmt.Errorf("components: encode qualifier map: %w", err)
	}
	types, err := json.Marshal(g.ValueTypes)
	if err != nil {
		return fmt.Errorf("components: encode value types: %w", err)
	}

	var builder strings.Builder
	builder.WriteString(`<div class="wikiform-group" id="`)
	builder.WriteString(html.EscapeString(ControlID(field.Name)))
	builder.WriteString(`" data-group="`)
	builder.WriteString(html.EscapeString(g.Property))
	builder.WriteString(`" data-widget="`)
	builder.WriteString(html.EscapeString(string(field.Widget)))
	builder.WriteString(`" data-qualifier-map="`)
	builder.WriteString(html.EscapeString(string(qmap)))
	builder.WriteString(`" data-value-types="`)
	builder.WriteString(html.EscapeString(string(types)))
	builder.WriteString(`" data-next-index="`)
	builder.WriteString(strconv.Itoa(g.NextIndex))
	builder.WriteString(`">`)

	builder.WriteString(`<div class="wikiform-entries">`)
	for _, entry := range g.Entries {
		markup, err := renderEntry(field, strconv.Itoa(entry.Index), entry, data)
		if err != nil {
			return err
		}
		builder.WriteString(markup)
	}
	builder.WriteString(`</div>`)

	blank, err := renderEntry(field, IndexToken, model.GroupEntry{State: model.EntryEmpty}, data)
	if err != nil {
		return err
	}
	builder.WriteString(`<template data-entry-template>`)
	builder.WriteString(blank)
	builder.WriteString(`</template>`)

	builder.WriteString(`<button type="button" class="wikiform-add" data-entry-add>Add another</button>`)
	builder.WriteString(`</div>`)

	buf.WriteString(builder.String())
	return nil
}

func renderEntry(field model.Field, index string, entry model.GroupEntry, data ComponentData) (string, error) {
	g := field.Group
	base := field.Name + "." + index

	var builder strings.Builder
	builder.WriteString(`<div class="wikiform-entry" data-entry="`)
	builder.WriteString(html.EscapeString(index))
	builder.WriteString(`" data-state="`)
	builder.WriteString(html.EscapeString(string(entry.State)))
	builder.WriteString(`">`)

	if entry.StatementID != "" {
		builder.WriteString(`<input type="hidden" name="`)
		builder.WriteString(html.EscapeString(base + ".statement"))
		builder.WriteString(`" value="`)
		builder.WriteString(html.EscapeString(entry.StatementID))
		builder.WriteString(`">`)
	}

	main := model.Field{
		Name:     base + ".value",
		Widget:   field.Widget,
		Datatype: field.Datatype,
		Required: field.Required,
		Options:  field.Options,
		Metadata: map[string]string{MetadataEntry: "true"},
	}
	if field.Widget == schema.KindCoordinates {
		main.Name = base
	}
	if entry.Main != "" {
		main.Initial = []string{entry.Main}
	}
	markup, err := data.RenderChild(main)
	if err != nil {
		return "", err
	}
	builder.WriteString(markup)

	if len(g.Qualifiers) > 0 {
		builder.WriteString(`<div class="wikiform-qualifiers">`)
		for _, q := range g.Qualifiers {
			child := model.Field{
				Name:     base + ".qualifier." + q.ID,
				Label:    q.Label,
				Widget:   q.Widget,
				Datatype: q.Datatype,
				Options:  q.Options,
				Metadata: map[string]string{MetadataEntry: "true"},
			}
			if v := entry.Qualifiers[q.ID]; v != "" {
				child.Initial = []string{v}
			}
			markup, err := data.RenderChild(child)
			if err != nil {
				return "", err
			}
			builder.WriteString(`<div class="wikiform-qualifier" data-qualifier="`)
			builder.WriteString(html.EscapeString(q.ID))
			builder.WriteString(`"`)
			if !slices.Contains(entry.Revealed, q.ID) {
				builder.WriteString(` hidden`)
			}
			builder.WriteString(`>`)
			builder.WriteString(markup)
			builder.WriteString(`</div>`)
		}
		builder.WriteString(`</div>`)
	}

	builder.WriteString(`<button type="button" class="wikiform-remove" data-entry-remove>Remove</button>`)
	builder.WriteString(`</div>`)
	return builder.String(), nil
}
