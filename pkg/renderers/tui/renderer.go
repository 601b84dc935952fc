package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/goliatone/go-wikiform/pkg/collect"
	"github.com/goliatone/go-wikiform/pkg/entity"
	"github.com/goliatone/go-wikiform/pkg/model"
	"github.com/goliatone/go-wikiform/pkg/render"
	"github.com/goliatone/go-wikiform/pkg/schema"
	"github.com/goliatone/go-wikiform/pkg/wikibase"
)

// Name is the registry name of the terminal renderer.
const Name = "tui"

const (
	noneChoice  = "(none)"
	otherChoice = "Other item id…"
)

var (
	errRequired = errors.New("is required")
	errURL      = errors.New("must be an absolute URL")
)

// Renderer walks a form description as a sequence of terminal prompts and
// serializes the answers keyed by form path, so the output can be submitted
// exactly like a browser post.
type Renderer struct {
	driver       PromptDriver
	outputFormat OutputFormat
	answersHook  AnswersHook
	theme        Theme
}

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (render.Renderer, error) {
	r := &Renderer{
		driver:       NewSurveyDriver(Terminal{}),
		outputFormat: OutputFormatJSON,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return Name
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render prompts for every field of form. Values in opts prefill the
// prompts; hidden fields are copied into the output untouched.
func (r *Renderer) Render(ctx context.Context, form model.FormDescription, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}

	form = form.Clone()
	render.ApplyValues(&form, opts.Values)
	render.ApplySubset(&form, opts.Subset)
	render.LocalizeForm(&form, opts)

	mapping := render.MapErrorPayload(form, opts.Errors)
	state := NewState(mapping.Fields)

	if err := r.info(ctx, form.Title); err != nil {
		return nil, err
	}
	for _, msg := range render.MergeFormErrors(mapping.Form, opts.FormErrors...) {
		if err := r.fail(ctx, msg); err != nil {
			return nil, err
		}
	}

	for _, section := range form.Sections {
		if len(section.Fields) == 0 {
			continue
		}
		if err := r.info(ctx, "== "+section.Title+" =="); err != nil {
			return nil, err
		}
		for i := range section.Fields {
			if err := r.promptField(ctx, &section.Fields[i], state); err != nil {
				return nil, err
			}
		}
	}

	values := state.Values()
	for name, value := range opts.Hidden {
		values.Set(name, value)
	}
	if r.answersHook != nil {
		var err error
		values, err = r.answersHook(values)
		if err != nil {
			return nil, fmt.Errorf("tui: answers hook: %w", err)
		}
	}

	return r.serialize(values)
}

func (r *Renderer) promptField(ctx context.Context, field *model.Field, state *State) error {
	if field.Group != nil {
		return r.promptGroup(ctx, field, state)
	}

	label := displayLabel(*field)
	help := displayHelp(*field)

	switch field.Widget {
	case schema.KindCoordinates:
		if err := r.showErrors(ctx, label, state.ErrorsFor(field.Name, model.LatPath(field.Name), model.LonPath(field.Name))); err != nil {
			return err
		}
		lat, lon, err := r.promptCoordinate(ctx, label, help, first(field.Initial), field.Required)
		if err != nil {
			return err
		}
		state.Set(model.LatPath(field.Name), lat)
		state.Set(model.LonPath(field.Name), lon)
		return nil

	case schema.KindMultiselect:
		if err := r.showErrors(ctx, label, state.ErrorsFor(field.Name, field.Name+collect.CustomSuffix)); err != nil {
			return err
		}
		return r.promptMultiselect(ctx, *field, label, help, state)

	default:
		if err := r.showErrors(ctx, label, state.ErrorsFor(field.Name)); err != nil {
			return err
		}
		value, err := r.promptValue(ctx, label, help, first(field.Initial), field.Datatype, field.Widget, field.Required)
		if err != nil {
			return err
		}
		state.Set(field.Name, value)
		return nil
	}
}

func (r *Renderer) promptMultiselect(ctx context.Context, field model.Field, label, help string, state *State) error {
	for {
		labels := make([]string, 0, len(field.Options))
		var defaults []int
		for i, o := range field.Options {
			labels = append(labels, optionLabel(o))
			for _, v := range field.Initial {
				if v == o.Value {
					defaults = append(defaults, i)
				}
			}
		}

		var selected []string
		if len(labels) > 0 {
			indices, err := r.driver.MultiSelect(ctx, SelectConfig{
				Message:  r.theme.PromptPrefix + label,
				Options:  labels,
				Defaults: defaults,
				Help:     help,
			})
			if err != nil {
				return err
			}
			for _, idx := range indices {
				if idx >= 0 && idx < len(field.Options) {
					selected = append(selected, field.Options[idx].Value)
				}
			}
		}

		custom, err := r.promptLoop(ctx, label+": other item ids", InputConfig{
			Message: r.theme.PromptPrefix + label + ": other item ids",
			Default: field.Metadata[render.MetadataCustomIDs],
			Help:    "Space or comma separated, e.g. Q42 Q43",
		}, validateItemList)
		if err != nil {
			return err
		}

		if field.Required && len(selected) == 0 && custom == "" {
			if err := r.fail(ctx, fmt.Sprintf("%s %v", label, errRequired)); err != nil {
				return err
			}
			continue
		}

		state.Set(field.Name, selected...)
		state.Set(field.Name+collect.CustomSuffix, custom)
		return nil
	}
}

// promptGroup prompts for each entry of a statement group, then offers to
// add more. Choosing a main value reveals the qualifiers the group's
// qualifier map assigns to it, and only those are asked.
func (r *Renderer) promptGroup(ctx context.Context, field *model.Field, state *State) error {
	g := field.Group
	label := displayLabel(*field)

	for i := 0; i < len(g.Entries); i++ {
		if err := r.promptEntry(ctx, field, g.Entries[i].Index, state); err != nil {
			return err
		}
	}

	for {
		more, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: r.theme.PromptPrefix + fmt.Sprintf("Add another %s?", label),
		})
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		entry := g.Add()
		if err := r.promptEntry(ctx, field, entry.Index, state); err != nil {
			return err
		}
	}
}

func (r *Renderer) promptEntry(ctx context.Context, field *model.Field, index int, state *State) error {
	g := field.Group
	entry, ok := g.Entry(index)
	if !ok {
		return fmt.Errorf("tui: group %s has no entry %d", g.Property, index)
	}

	base := model.EntryPath(field.Name, index)
	label := fmt.Sprintf("%s #%d", displayLabel(*field), index+1)
	help := displayHelp(*field)

	if entry.StatementID != "" {
		state.Set(model.StatementPath(field.Name, index), entry.StatementID)
	}

	var (
		main string
		err  error
	)
	switch field.Widget {
	case schema.KindCoordinates:
		if err := r.showErrors(ctx, label, state.ErrorsFor(base, model.LatPath(base), model.LonPath(base))); err != nil {
			return err
		}
		lat, lon, err := r.promptCoordinate(ctx, label, help, entry.Main, false)
		if err != nil {
			return err
		}
		state.Set(model.LatPath(base), lat)
		state.Set(model.LonPath(base), lon)
		if lat != "" && lon != "" {
			main = model.JoinCoordinate(lat, lon)
		}
	case schema.KindMultiselect:
		path := model.ValuePath(field.Name, index)
		if err := r.showErrors(ctx, label, state.ErrorsFor(base, path)); err != nil {
			return err
		}
		main, err = r.promptChoice(ctx, label, help, field.Options, entry.Main)
		if err != nil {
			return err
		}
		state.Set(path, main)
	default:
		path := model.ValuePath(field.Name, index)
		if err := r.showErrors(ctx, label, state.ErrorsFor(base, path)); err != nil {
			return err
		}
		main, err = r.promptValue(ctx, label, help, entry.Main, field.Datatype, field.Widget, false)
		if err != nil {
			return err
		}
		state.Set(path, main)
	}

	entry, err = g.Select(index, main)
	if err != nil {
		return err
	}

	for _, id := range entry.Revealed {
		q, ok := g.Qualifier(id)
		if !ok {
			continue
		}
		path := model.QualifierPath(field.Name, index, id)
		qlabel := fmt.Sprintf("%s: %s", label, displayQualifier(q))
		if err := r.showErrors(ctx, qlabel, state.ErrorsFor(path)); err != nil {
			return err
		}

		var value string
		if len(q.Options) > 0 {
			value, err = r.promptChoice(ctx, qlabel, "", q.Options, entry.Qualifiers[id])
		} else {
			value, err = r.promptValue(ctx, qlabel, "", entry.Qualifiers[id], q.Datatype, q.Widget, false)
		}
		if err != nil {
			return err
		}
		state.Set(path, value)
	}
	return nil
}

// promptChoice offers options plus "none" and a free item id.
func (r *Renderer) promptChoice(ctx context.Context, label, help string, options []model.Option, current string) (string, error) {
	labels := make([]string, 0, len(options)+2)
	labels = append(labels, noneChoice)
	defaultIndex := 0
	for i, o := range options {
		labels = append(labels, optionLabel(o))
		if o.Value == current {
			defaultIndex = i + 1
		}
	}
	labels = append(labels, otherChoice)
	other := len(labels) - 1
	if current != "" && defaultIndex == 0 {
		defaultIndex = other
	}

	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      r.theme.PromptPrefix + label,
		Options:      labels,
		DefaultIndex: defaultIndex,
		Help:         help,
	})
	if err != nil {
		return "", err
	}
	switch {
	case idx <= 0 || idx > other:
		return "", nil
	case idx == other:
		custom := ""
		if defaultIndex == other {
			custom = current
		}
		return r.promptValue(ctx, label+" (item id)", help, custom, wikibase.DatatypeItem, schema.KindItemInput, false)
	default:
		return options[idx-1].Value, nil
	}
}

func (r *Renderer) promptValue(ctx context.Context, label, help, def string, datatype wikibase.Datatype, kind schema.Kind, required bool) (string, error) {
	validate := func(v string) error {
		return validateValue(v, datatype, kind, required)
	}
	if kind == schema.KindTextarea {
		for {
			value, err := r.driver.TextArea(ctx, TextAreaConfig{
				Message: r.theme.PromptPrefix + label,
				Default: def,
				Help:    help,
			})
			if err != nil {
				return "", err
			}
			if err := validate(value); err != nil {
				if err := r.fail(ctx, fmt.Sprintf("%s %v", label, err)); err != nil {
					return "", err
				}
				continue
			}
			return strings.TrimSpace(value), nil
		}
	}
	return r.promptLoop(ctx, label, InputConfig{
		Message: r.theme.PromptPrefix + label,
		Default: def,
		Help:    help,
	}, validate)
}

func (r *Renderer) promptCoordinate(ctx context.Context, label, help, def string, required bool) (string, string, error) {
	defLat, defLon := model.SplitCoordinate(def)
	for {
		lat, err := r.driver.Input(ctx, InputConfig{
			Message: r.theme.PromptPrefix + label + " latitude",
			Default: defLat,
			Help:    help,
		})
		if err != nil {
			return "", "", err
		}
		lon, err := r.driver.Input(ctx, InputConfig{
			Message: r.theme.PromptPrefix + label + " longitude",
			Default: defLon,
			Help:    help,
		})
		if err != nil {
			return "", "", err
		}
		lat, lon = strings.TrimSpace(lat), strings.TrimSpace(lon)

		var verr error
		switch {
		case lat == "" && lon == "":
			if required {
				verr = errRequired
			}
		default:
			_, verr = entity.CoordinateValueOf(lat, lon)
		}
		if verr == nil {
			return lat, lon, nil
		}
		if err := r.fail(ctx, fmt.Sprintf("%s %v", label, verr)); err != nil {
			return "", "", err
		}
	}
}

// promptLoop re-asks until validate accepts the trimmed answer.
func (r *Renderer) promptLoop(ctx context.Context, label string, cfg InputConfig, validate func(string) error) (string, error) {
	cfg.Validator = validate
	for {
		value, err := r.driver.Input(ctx, cfg)
		if err != nil {
			return "", err
		}
		value = strings.TrimSpace(value)
		if err := validate(value); err != nil {
			if err := r.fail(ctx, fmt.Sprintf("%s %v", label, err)); err != nil {
				return "", err
			}
			continue
		}
		return value, nil
	}
}

func (r *Renderer) showErrors(ctx context.Context, label string, messages []string) error {
	for _, msg := range messages {
		if err := r.fail(ctx, fmt.Sprintf("%s: %s", label, msg)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) info(ctx context.Context, msg string) error {
	if msg == "" {
		return nil
	}
	return r.driver.Info(ctx, r.theme.InfoPrefix+msg)
}

func (r *Renderer) fail(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.ErrorPrefix+msg)
}

func (r *Renderer) serialize(values url.Values) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(values.Encode()), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values)), nil
	default:
		return json.Marshal(values)
	}
}

// validateValue applies the checks the entity builder applies on submit,
// keyed by datatype with the widget as a fallback.
func validateValue(value string, datatype wikibase.Datatype, kind schema.Kind, required bool) error {
	v := strings.TrimSpace(value)
	if v == "" {
		if required {
			return errRequired
		}
		return nil
	}
	if datatype == "" {
		switch kind {
		case schema.KindNumber:
			datatype = wikibase.DatatypeQuantity
		case schema.KindDate:
			datatype = wikibase.DatatypeTime
		case schema.KindItemInput, schema.KindMultiselect:
			datatype = wikibase.DatatypeItem
		case schema.KindURL:
			datatype = wikibase.DatatypeURL
		}
	}
	if datatype == wikibase.DatatypeURL {
		u, err := url.Parse(v)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errURL
		}
		return nil
	}
	_, err := entity.Encode(datatype, v, "")
	return err
}

func validateItemList(raw string) error {
	for _, id := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	}) {
		if _, err := entity.ItemValue(id); err != nil {
			return fmt.Errorf("%q %w", id, err)
		}
	}
	return nil
}

func displayLabel(field model.Field) string {
	if field.Label != "" {
		return field.Label
	}
	return field.Name
}

func displayHelp(field model.Field) string {
	if h := field.Metadata["cli.help"]; h != "" {
		return h
	}
	return field.Description
}

func displayQualifier(q model.Qualifier) string {
	if q.Label != "" {
		return q.Label
	}
	return q.ID
}

func optionLabel(o model.Option) string {
	if o.Label == "" || o.Label == o.Value {
		return o.Value
	}
	return fmt.Sprintf("%s (%s)", o.Label, o.Value)
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func prettyPrint(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, strings.Join(values[k], ", "))
	}
	return b.String()
}
