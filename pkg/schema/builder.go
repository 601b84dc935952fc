package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-wikiform/pkg/sparql"
	"github.com/goliatone/go-wikiform/pkg/wikibase"
)

// PropertyRow is one property discovered on an exemplar.
type PropertyRow struct {
	ID          string            `json:"id"`
	Label       string            `json:"label"`
	Description string            `json:"description,omitempty"`
	Datatype    wikibase.Datatype `json:"datatype"`
}

// Request carries the inputs of one schema build.
type Request struct {
	Properties []PropertyRow
	TypeValue  string
	ExemplarID string
	Mode       Mode
}

// Builder turns exemplar properties into a Schema, issuing the value and
// qualifier lookups each property needs.
type Builder struct {
	queries     *sparql.Builder
	exec        sparql.Executor
	logger      *zap.Logger
	concurrency int
}

// NewBuilder returns a Builder issuing queries built by queries through exec.
func NewBuilder(queries *sparql.Builder, exec sparql.Executor, opts ...Option) (*Builder, error) {
	if queries == nil {
		return nil, errors.New("schema: query builder is required")
	}
	if exec == nil {
		return nil, errors.New("schema: executor is required")
	}
	cfg := newOptions(opts)
	return &Builder{queries: queries, exec: exec, logger: cfg.logger, concurrency: cfg.concurrency}, nil
}

// Build describes properties in exemplar order, up to the configured
// concurrency at a time. A failed lookup for one property is logged and the
// property is kept without values or qualifiers; only context cancellation
// aborts the build.
func (b *Builder) Build(ctx context.Context, req Request) (Schema, error) {
	if !req.Mode.Valid() {
		return Schema{}, fmt.Errorf("schema: invalid mode %q", req.Mode)
	}
	if err := wikibase.ValidateItemID(req.ExemplarID); err != nil {
		return Schema{}, fmt.Errorf("schema: exemplar: %w", err)
	}
	if err := wikibase.ValidateItemID(req.TypeValue); err != nil {
		return Schema{}, fmt.Errorf("schema: type value: %w", err)
	}

	logger := b.logger.With(zap.String("exemplar", req.ExemplarID), zap.String("type", req.TypeValue), zap.String("mode", string(req.Mode)))
	logger.Debug("building schema", zap.Int("properties", len(req.Properties)))

	if err := ctx.Err(); err != nil {
		return Schema{}, err
	}

	rows := make([]PropertyRow, 0, len(req.Properties))
	seen := make(map[string]struct{}, len(req.Properties))
	for _, row := range req.Properties {
		if _, dup := seen[row.ID]; dup {
			continue
		}
		seen[row.ID] = struct{}{}

		if row.ID == b.queries.InstanceOfProperty() && req.Mode == ModeCreate {
			continue
		}
		if err := wikibase.ValidateEntityID(row.ID); err != nil {
			logger.Warn("skipping property with invalid id", zap.String("property", row.ID))
			continue
		}
		rows = append(rows, row)
	}

	descs := make([]PropertyDescriptor, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, row := range rows {
		g.Go(func() error {
			desc, err := b.describe(gctx, logger, row, req)
			if err != nil {
				return err
			}
			descs[i] = desc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Schema{}, err
	}

	out := Schema{Basic: BasicFields(), Properties: descs}
	logger.Debug("schema built", zap.Int("properties", len(out.Properties)))
	return out, nil
}

func (b *Builder) describe(ctx context.Context, logger *zap.Logger, row PropertyRow, req Request) (PropertyDescriptor, error) {
	label := row.Label
	if label == "" {
		label = row.ID
	}
	desc := PropertyDescriptor{
		ID:          row.ID,
		Label:       label,
		Description: row.Description,
		Datatype:    row.Datatype,
		Kind:        KindFor(row.Datatype),
	}
	logger = logger.With(zap.String("property", row.ID))

	if row.Datatype.IsItem() {
		values, err := b.propertyValues(ctx, row.ID, req.TypeValue, req.ExemplarID)
		switch {
		case err != nil && ctx.Err() != nil:
			return PropertyDescriptor{}, ctx.Err()
		case err != nil:
			logger.Warn("value lookup failed, falling back to item input", zap.Error(err))
		case len(values) > 0:
			desc.Kind = KindMultiselect
			desc.Values = values
		}
	}

	qualifiers, qmap, err := b.qualifiers(ctx, logger, req.ExemplarID, row.ID)
	if err != nil {
		if ctx.Err() != nil {
			return PropertyDescriptor{}, ctx.Err()
		}
		logger.Warn("qualifier lookup failed, continuing without qualifiers", zap.Error(err))
		return desc, nil
	}
	if len(qualifiers) > 0 {
		desc.Qualifiers = qualifiers
		desc.QualifierMap = qmap
	}
	return desc, nil
}

func (b *Builder) propertyValues(ctx context.Context, propertyID, typeValue, exemplarID string) ([]ValueOption, error) {
	query, err := b.queries.PropertyValues(propertyID, typeValue, exemplarID)
	if err != nil {
		return nil, err
	}
	rows, err := b.exec.Execute(ctx, query)
	if err != nil {
		return nil, err
	}
	return valueOptions(rows), nil
}

func (b *Builder) qualifierValues(ctx context.Context, qualifierID string) ([]ValueOption, error) {
	query, err := b.queries.QualifierValues(qualifierID)
	if err != nil {
		return nil, err
	}
	rows, err := b.exec.Execute(ctx, query)
	if err != nil {
		return nil, err
	}
	return valueOptions(rows), nil
}

func (b *Builder) qualifiers(ctx context.Context, logger *zap.Logger, exemplarID, propertyID string) ([]QualifierDescriptor, QualifierMap, error) {
	query, err := b.queries.PropertyQualifiers(exemplarID, propertyID)
	if err != nil {
		return nil, nil, err
	}
	rows, err := b.exec.Execute(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}

	qmap := make(QualifierMap)
	var descs []QualifierDescriptor
	index := make(map[string]int)

	for _, row := range rows {
		qid := row.ID("qualifier")
		if !wikibase.IsEntityID(qid) {
			continue
		}
		if key := mainValueKey(row); key != "" {
			qmap.Add(key, qid)
		}
		if _, ok := index[qid]; ok {
			continue
		}
		datatype := wikibase.ParseDatatype(row.Value("qualifierDatatype"))
		index[qid] = len(descs)
		descs = append(descs, QualifierDescriptor{
			ID:       qid,
			Label:    row.Label("qualifierLabel", qid),
			Datatype: datatype,
			Kind:     KindFor(datatype),
		})
	}

	for i := range descs {
		if !descs[i].Datatype.IsItem() {
			continue
		}
		values, err := b.qualifierValues(ctx, descs[i].ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			logger.Warn("qualifier value lookup failed", zap.String("qualifier", descs[i].ID), zap.Error(err))
			continue
		}
		descs[i].Values = values
	}

	if len(qmap) == 0 {
		qmap = nil
	}
	return descs, qmap, nil
}

// mainValueKey keys entity main values by their instance-of type so the
// qualifier rule applies to every entity of that type. Untyped entities fall
// back to their id and literals to their value.
func mainValueKey(row sparql.Row) string {
	main, ok := row["mainValue"]
	if !ok {
		return ""
	}
	if !main.IsEntityReference {
		return main.Value
	}
	if t := row.ID("mainValueType"); t != "" {
		return t
	}
	return row.ID("mainValue")
}

// valueOptions merges rows per value id, accumulating types and keeping the
// first-seen order.
func valueOptions(rows []sparql.Row) []ValueOption {
	var out []ValueOption
	index := make(map[string]int)
	for _, row := range rows {
		id := row.ID("value")
		if !wikibase.IsEntityID(id) {
			continue
		}
		i, ok := index[id]
		if !ok {
			i = len(out)
			index[id] = i
			out = append(out, ValueOption{ID: id, Label: row.Label("valueLabel", id)})
		}
		if t := row.ID("valueType"); t != "" {
			out[i].Types = appendSorted(out[i].Types, t)
		}
	}
	return out
}

func appendSorted(list []string, v string) []string {
	idx := sort.SearchStrings(list, v)
	if idx < len(list) && list[idx] == v {
		return list
	}
	list = append(list, "")
	copy(list[idx+1:], list[idx:])
	list[idx] = v
	return list
}
