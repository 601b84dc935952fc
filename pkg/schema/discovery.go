package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/goliatone/go-wikiform/pkg/sparql"
	"github.com/goliatone/go-wikiform/pkg/wikibase"
)

var (
	// ErrTypeNotFound is returned when an item has no instance-of statement.
	ErrTypeNotFound = errors.New("schema: entity type not found")
	// ErrNoExemplar is returned when no configured exemplar shares the
	// requested type.
	ErrNoExemplar = errors.New("schema: no exemplar configured for type")
)

// TypeInfo is an item's instance-of value and its label.
type TypeInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Discoverer runs the lookups that precede a schema build: the type of the
// exemplar or edited item, the exemplar's properties, and the exemplar that
// matches an existing item's type.
type Discoverer struct {
	queries   *sparql.Builder
	exec      sparql.Executor
	logger    *zap.Logger
	exemplars map[string]string
}

// NewDiscoverer wires a Discoverer. Exemplars are supplied with WithExemplars.
func NewDiscoverer(queries *sparql.Builder, exec sparql.Executor, opts ...Option) (*Discoverer, error) {
	if queries == nil {
		return nil, errors.New("schema: query builder is required")
	}
	if exec == nil {
		return nil, errors.New("schema: executor is required")
	}
	cfg := newOptions(opts)
	return &Discoverer{queries: queries, exec: exec, logger: cfg.logger, exemplars: cfg.exemplars}, nil
}

// TypeOf returns the instance-of value of itemID.
func (d *Discoverer) TypeOf(ctx context.Context, itemID string) (TypeInfo, error) {
	query, err := d.queries.InstanceOf(itemID)
	if err != nil {
		return TypeInfo{}, err
	}
	rows, err := d.exec.Execute(ctx, query)
	if err != nil {
		return TypeInfo{}, fmt.Errorf("schema: type of %s: %w", itemID, err)
	}
	for _, row := range rows {
		id := row.ID("instanceOf")
		if !wikibase.IsItemID(id) {
			continue
		}
		return TypeInfo{ID: id, Label: row.Label("instanceOfLabel", id)}, nil
	}
	return TypeInfo{}, fmt.Errorf("%w: %s", ErrTypeNotFound, itemID)
}

// ExemplarProperties lists the properties used on the exemplar.
func (d *Discoverer) ExemplarProperties(ctx context.Context, exemplarID string) ([]PropertyRow, error) {
	query, err := d.queries.ExemplarProperties(exemplarID)
	if err != nil {
		return nil, err
	}
	rows, err := d.exec.Execute(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("schema: properties of %s: %w", exemplarID, err)
	}
	return PropertyRows(rows), nil
}

// PropertyRows converts exemplar-properties result rows.
func PropertyRows(rows []sparql.Row) []PropertyRow {
	out := make([]PropertyRow, 0, len(rows))
	for _, row := range rows {
		id := row.ID("property")
		if id == "" {
			continue
		}
		out = append(out, PropertyRow{
			ID:          id,
			Label:       row.Label("propertyLabel", id),
			Description: row.Value("propertyDescription"),
			Datatype:    wikibase.ParseDatatype(row.Value("datatype")),
		})
	}
	return out
}

// Exemplars returns the configured exemplar keys in sorted order.
func (d *Discoverer) Exemplars() []string {
	keys := make([]string, 0, len(d.exemplars))
	for k := range d.exemplars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FindExemplar checks each configured exemplar, in key order, and returns the
// first whose instance-of value equals typeValue. Lookup failures for a single
// exemplar are logged and skipped.
func (d *Discoverer) FindExemplar(ctx context.Context, typeValue string) (string, string, error) {
	for _, key := range d.Exemplars() {
		exemplarID := d.exemplars[key]
		info, err := d.TypeOf(ctx, exemplarID)
		if err != nil {
			if ctx.Err() != nil {
				return "", "", ctx.Err()
			}
			d.logger.Warn("exemplar type lookup failed", zap.String("entityType", key), zap.String("exemplar", exemplarID), zap.Error(err))
			continue
		}
		if info.ID == typeValue {
			return key, exemplarID, nil
		}
	}
	return "", "", fmt.Errorf("%w: %s", ErrNoExemplar, typeValue)
}

// LabelFor returns the label of itemID, or itemID itself when it has none.
func (d *Discoverer) LabelFor(ctx context.Context, itemID string) (string, error) {
	query, err := d.queries.EntityLabel(itemID)
	if err != nil {
		return "", err
	}
	rows, err := d.exec.Execute(ctx, query)
	if err != nil {
		return "", fmt.Errorf("schema: label of %s: %w", itemID, err)
	}
	if len(rows) == 0 {
		return itemID, nil
	}
	return rows[0].Label("label", itemID), nil
}

// ItemRows fetches the statement dump and the label/description rows for an
// existing item.
func (d *Discoverer) ItemRows(ctx context.Context, itemID string) ([]sparql.Row, []sparql.Row, error) {
	dataQuery, err := d.queries.ItemData(itemID)
	if err != nil {
		return nil, nil, err
	}
	labelQuery, err := d.queries.LabelDescription(itemID)
	if err != nil {
		return nil, nil, err
	}
	data, err := d.exec.Execute(ctx, dataQuery)
	if err != nil {
		return nil, nil, fmt.Errorf("schema: item data of %s: %w", itemID, err)
	}
	labels, err := d.exec.Execute(ctx, labelQuery)
	if err != nil {
		return nil, nil, fmt.Errorf("schema: label of %s: %w", itemID, err)
	}
	return data, labels, nil
}
