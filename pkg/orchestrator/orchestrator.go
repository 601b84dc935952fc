package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-wikiform/pkg/cache"
	"github.com/goliatone/go-wikiform/pkg/collect"
	"github.com/goliatone/go-wikiform/pkg/config"
	"github.com/goliatone/go-wikiform/pkg/entity"
	"github.com/goliatone/go-wikiform/pkg/itemdata"
	"github.com/goliatone/go-wikiform/pkg/metrics"
	"github.com/goliatone/go-wikiform/pkg/model"
	"github.com/goliatone/go-wikiform/pkg/render"
	"github.com/goliatone/go-wikiform/pkg/renderers/vanilla"
	"github.com/goliatone/go-wikiform/pkg/schema"
	"github.com/goliatone/go-wikiform/pkg/sparql"
	"github.com/goliatone/go-wikiform/pkg/strategy"
	"github.com/goliatone/go-wikiform/pkg/submit"
	"github.com/goliatone/go-wikiform/pkg/wikibase"
)

const defaultRendererName = vanilla.Name

// ErrNoSubmitter is returned by Submit when no write proxy client is wired.
var ErrNoSubmitter = errors.New("orchestrator: no submitter configured")

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithConfig supplies the configuration document. Exemplars, the instance-of
// property, query and cache settings are read from it.
func WithConfig(cfg config.Config) Option {
	return func(o *Orchestrator) {
		o.cfg = cfg
		o.cfgSet = true
	}
}

// WithExecutor replaces the SPARQL client built from the configuration.
func WithExecutor(exec sparql.Executor) Option {
	return func(o *Orchestrator) {
		o.exec = exec
	}
}

// WithLogger routes pipeline and degradation logs to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics reports query, cache and submission outcomes to recorder.
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(o *Orchestrator) {
		o.metrics = recorder
	}
}

// WithStrategies replaces the built-in strategy registry.
func WithStrategies(registry *strategy.Registry) Option {
	return func(o *Orchestrator) {
		o.strategies = registry
	}
}

// WithCache injects the schema cache. Useful to share one cache between
// orchestrators or to control its clock in tests.
func WithCache(c *cache.Cache[schema.Schema]) Option {
	return func(o *Orchestrator) {
		o.cache = c
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a call omits an
// explicit renderer name.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithDecorators registers decorators that run against every built form
// description.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(o *Orchestrator) {
		if len(decorators) == 0 {
			return
		}
		o.decorators = append(o.decorators, decorators...)
	}
}

// WithTransformer registers a Transformer that runs after the decorators.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithSubmitter wires the write proxy client used by Submit.
func WithSubmitter(s submit.Submitter) Option {
	return func(o *Orchestrator) {
		o.submitter = s
	}
}

// WithConcurrency bounds how many properties are described at once during a
// schema build.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		o.concurrency = n
	}
}

// Orchestrator coordinates the pipeline from entity type to rendered form and
// from submitted form state to a written entity.
type Orchestrator struct {
	cfg             config.Config
	cfgSet          bool
	exec            sparql.Executor
	logger          *zap.Logger
	metrics         *metrics.Recorder
	strategies      *strategy.Registry
	cache           *cache.Cache[schema.Schema]
	registry        *render.Registry
	defaultRenderer string
	decorators      []model.Decorator
	transformer     Transformer
	submitter       submit.Submitter
	concurrency     int

	queries    *sparql.Builder
	discoverer *schema.Discoverer
	schemas    *schema.Builder
	entities   *entity.Builder
}

// New constructs an Orchestrator. Missing dependencies are built from the
// configuration: a SPARQL client for the configured endpoint, the built-in
// strategies plus any overlay documents, a TTL schema cache and a registry
// holding the vanilla and json renderers.
func New(options ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		cfg:             config.DefaultConfig(),
		logger:          zap.NewNop(),
		defaultRenderer: defaultRendererName,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	if err := o.applyDefaults(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Orchestrator) applyDefaults() error {
	if o.exec == nil {
		if o.cfg.Wikibase.SPARQLEndpoint == "" {
			return errors.New("orchestrator: sparql endpoint or executor is required")
		}
		opts := []sparql.ClientOption{
			sparql.WithTimeout(o.cfg.Query.Timeout),
			sparql.WithRetries(o.cfg.Query.Retries),
		}
		if o.metrics != nil {
			opts = append(opts, sparql.WithObserver(o.metrics))
		}
		client, err := sparql.NewClient(o.cfg.Wikibase.SPARQLEndpoint, opts...)
		if err != nil {
			return fmt.Errorf("orchestrator: sparql client: %w", err)
		}
		o.exec = client
	}

	queries, err := sparql.NewBuilder(o.cfg.Wikibase.URL, o.cfg.Properties.InstanceOf)
	if err != nil {
		return fmt.Errorf("orchestrator: query builder: %w", err)
	}
	o.queries = queries

	exemplars := make(map[string]string, len(o.cfg.Exemplars))
	for key, ex := range o.cfg.Exemplars {
		exemplars[key] = ex.ID
	}
	o.discoverer, err = schema.NewDiscoverer(queries, o.exec, schema.WithLogger(o.logger), schema.WithExemplars(exemplars))
	if err != nil {
		return fmt.Errorf("orchestrator: discoverer: %w", err)
	}
	o.schemas, err = schema.NewBuilder(queries, o.exec, schema.WithLogger(o.logger), schema.WithConcurrency(o.concurrency))
	if err != nil {
		return fmt.Errorf("orchestrator: schema builder: %w", err)
	}
	o.entities = entity.NewBuilder()

	if o.strategies == nil {
		o.strategies = strategy.Defaults()
		if dir := o.cfg.Strategies.Dir; dir != "" {
			overlays, err := strategy.LoadOverlays(os.DirFS(dir), ".")
			if err != nil {
				return fmt.Errorf("orchestrator: strategy overlays: %w", err)
			}
			o.strategies.ApplyOverlays(overlays)
		}
	}

	if o.cache == nil && !o.cfg.Cache.Disabled {
		var opts []cache.Option
		if o.metrics != nil {
			opts = append(opts, cache.WithObserver(o.metrics))
		}
		o.cache = cache.New[schema.Schema](o.cfg.Cache.TTL, opts...)
	}

	if o.registry == nil {
		o.registry = render.NewRegistry()
		renderer, err := vanilla.New(vanilla.WithAssetsPrefix(o.cfg.Server.AssetsPrefix))
		if err != nil {
			return fmt.Errorf("orchestrator: default renderer: %w", err)
		}
		o.registry.MustRegister(renderer)
		o.registry.MustRegister(render.NewJSONRenderer())
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
	return nil
}

// Config returns the configuration the orchestrator was built with.
func (o *Orchestrator) Config() config.Config {
	return o.cfg
}

// Registry exposes the renderer registry so callers can add renderers.
func (o *Orchestrator) Registry() *render.Registry {
	return o.registry
}

// EntityTypes lists the configured entity-type keys.
func (o *Orchestrator) EntityTypes() []string {
	return o.cfg.ExemplarKeys()
}

// OpenCreate prepares a create form for entityType. The exemplar's type and
// properties are required; a failure to fetch either is a *GenerationError.
// forceRefresh rebuilds the schema even when a cached one is fresh.
func (o *Orchestrator) OpenCreate(ctx context.Context, entityType string, forceRefresh bool) (FormSession, error) {
	if err := ctx.Err(); err != nil {
		return FormSession{}, err
	}
	ex, ok := o.cfg.Exemplar(entityType)
	if !ok {
		return FormSession{}, stageError(StageConfig, fmt.Errorf("%w: %s", schema.ErrNoExemplar, entityType))
	}

	start := time.Now()
	info, err := o.discoverer.TypeOf(ctx, ex.ID)
	if err != nil {
		return FormSession{}, stageError(StageType, err)
	}

	s, err := o.schemaFor(ctx, schema.ModeCreate, entityType, ex.ID, info.ID, forceRefresh)
	if err != nil {
		return FormSession{}, err
	}
	s = o.strategies.Lookup(entityType).ApplySchema(s, nil, schema.ModeCreate)

	o.logger.Debug("create form opened",
		zap.String("entityType", entityType),
		zap.String("exemplar", ex.ID),
		zap.String("type", info.ID),
		zap.Int("properties", len(s.Properties)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return FormSession{
		Mode:       schema.ModeCreate,
		EntityType: entityType,
		ExemplarID: ex.ID,
		TypeValue:  info.ID,
		TypeLabel:  info.Label,
		Schema:     s,
	}, nil
}

// OpenEdit prepares an edit form for itemID: the item's type selects the
// exemplar, the schema comes from that exemplar, and the item's statements
// prefill it.
func (o *Orchestrator) OpenEdit(ctx context.Context, itemID string, forceRefresh bool) (FormSession, error) {
	if err := ctx.Err(); err != nil {
		return FormSession{}, err
	}
	if err := wikibase.ValidateItemID(itemID); err != nil {
		return FormSession{}, fmt.Errorf("orchestrator: %w", err)
	}

	start := time.Now()
	info, err := o.discoverer.TypeOf(ctx, itemID)
	if err != nil {
		return FormSession{}, stageError(StageType, err)
	}
	entityType, exemplarID, err := o.discoverer.FindExemplar(ctx, info.ID)
	if err != nil {
		return FormSession{}, stageError(StageExemplar, err)
	}

	dataRows, labelRows, err := o.discoverer.ItemRows(ctx, itemID)
	if err != nil {
		return FormSession{}, stageError(StageItemData, err)
	}
	strat := o.strategies.Lookup(entityType)
	snapshot := strat.Snapshot(itemdata.Normalize(dataRows, labelRows))

	s, err := o.schemaFor(ctx, schema.ModeEdit, entityType, exemplarID, info.ID, forceRefresh)
	if err != nil {
		return FormSession{}, err
	}
	s = strat.ApplySchema(s, &snapshot, schema.ModeEdit)

	o.logger.Debug("edit form opened",
		zap.String("item", itemID),
		zap.String("entityType", entityType),
		zap.String("exemplar", exemplarID),
		zap.Int("statements", len(snapshot.PropertyIDs())),
		zap.Duration("elapsed", time.Since(start)),
	)
	return FormSession{
		Mode:       schema.ModeEdit,
		EntityType: entityType,
		ExemplarID: exemplarID,
		ItemID:     itemID,
		TypeValue:  info.ID,
		TypeLabel:  info.Label,
		Schema:     s,
		Snapshot:   &snapshot,
	}, nil
}

func (o *Orchestrator) schemaFor(ctx context.Context, mode schema.Mode, entityType, exemplarID, typeValue string, forceRefresh bool) (schema.Schema, error) {
	load := func(ctx context.Context) (schema.Schema, error) {
		rows, err := o.discoverer.ExemplarProperties(ctx, exemplarID)
		if err != nil {
			return schema.Schema{}, stageError(StageProperties, err)
		}
		s, err := o.schemas.Build(ctx, schema.Request{
			Properties: rows,
			TypeValue:  typeValue,
			ExemplarID: exemplarID,
			Mode:       mode,
		})
		if err != nil {
			return schema.Schema{}, stageError(StageSchema, err)
		}
		return s, nil
	}
	if o.cache == nil {
		return load(ctx)
	}
	key := cache.Key(string(mode), entityType, exemplarID, typeValue)
	s, err := o.cache.GetOrLoad(ctx, key, forceRefresh, load)
	if err != nil {
		var gerr *GenerationError
		if errors.As(err, &gerr) {
			return schema.Schema{}, gerr
		}
		return schema.Schema{}, err
	}
	return s.Clone(), nil
}

// InvalidateSchema drops cached schemas of entityType in both modes and
// reports how many were dropped.
func (o *Orchestrator) InvalidateSchema(entityType string) int {
	if o.cache == nil {
		return 0
	}
	n := 0
	for _, mode := range []schema.Mode{schema.ModeCreate, schema.ModeEdit} {
		n += o.cache.InvalidatePrefix(cache.Key(string(mode), entityType) + "|")
	}
	return n
}

// InvalidateAll empties the schema cache, for example after a configuration
// reload.
func (o *Orchestrator) InvalidateAll() {
	if o.cache != nil {
		o.cache.InvalidateAll()
	}
}

// ItemLabel resolves the label of an item typed by hand, falling back to the
// id itself.
func (o *Orchestrator) ItemLabel(ctx context.Context, itemID string) (string, error) {
	return o.discoverer.LabelFor(ctx, itemID)
}

// Describe builds the form description for session and runs decorators and
// the transformer over it.
func (o *Orchestrator) Describe(ctx context.Context, session FormSession) (model.FormDescription, error) {
	form := model.Build(session.Schema, session.Snapshot,
		model.WithMode(session.Mode),
		model.WithEntityType(session.EntityType),
		model.WithExemplar(session.ExemplarID),
		model.WithType(session.TypeValue, session.TypeLabel),
		model.WithItemID(session.ItemID),
	)
	if err := o.applyDecorators(&form); err != nil {
		return model.FormDescription{}, err
	}
	if err := o.applyTransformer(ctx, &form); err != nil {
		return model.FormDescription{}, err
	}
	return form, nil
}

// Render describes session and renders it with the named renderer, or the
// default renderer when name is empty.
func (o *Orchestrator) Render(ctx context.Context, session FormSession, name string, opts render.RenderOptions) ([]byte, string, error) {
	if ctx == nil {
		return nil, "", errors.New("orchestrator: context is required")
	}
	form, err := o.Describe(ctx, session)
	if err != nil {
		return nil, "", err
	}
	renderer, err := o.rendererFor(name)
	if err != nil {
		return nil, "", err
	}
	output, err := renderer.Render(ctx, form, opts)
	if err != nil {
		return nil, "", fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, renderer.ContentType(), nil
}

// BuildPatch turns submitted form state into an entity patch: collect, the
// type's validation and transformation hooks, the entity builder and the
// type's entity customization. Every violation, from the builder and from
// the strategy, is returned in one *entity.ValidationError.
func (o *Orchestrator) BuildPatch(ctx context.Context, session FormSession, state url.Values) (entity.Patch, error) {
	form, err := o.Describe(ctx, session)
	if err != nil {
		return entity.Patch{}, err
	}
	strat := o.strategies.Lookup(session.EntityType)

	data := collect.Collect(form, state)
	violations := strat.Validate(data)
	data = strat.Transform(data)

	patch, err := o.entities.Build(data, session.Schema, entity.Session{
		Mode:       session.Mode,
		TypeValue:  session.TypeValue,
		InstanceOf: o.cfg.Properties.InstanceOf,
		Snapshot:   session.Snapshot,
	})
	if err != nil {
		var verr *entity.ValidationError
		if !errors.As(err, &verr) {
			return entity.Patch{}, fmt.Errorf("orchestrator: build entity: %w", err)
		}
		verr.Violations = append(verr.Violations, violations...)
		return entity.Patch{}, verr
	}
	if len(violations) > 0 {
		return entity.Patch{}, &entity.ValidationError{Violations: violations}
	}
	return strat.Customize(patch, data), nil
}

// Submit builds the patch for state and hands it to the write proxy: a new
// entity in create mode, an update of session.ItemID in edit mode.
func (o *Orchestrator) Submit(ctx context.Context, session FormSession, state url.Values, sessionID string) (submit.Result, error) {
	if o.submitter == nil {
		return submit.Result{}, ErrNoSubmitter
	}
	patch, err := o.BuildPatch(ctx, session, state)
	if err != nil {
		return submit.Result{}, err
	}

	var result submit.Result
	switch session.Mode {
	case schema.ModeEdit:
		result, err = o.submitter.Update(ctx, sessionID, session.ItemID, patch)
	default:
		result, err = o.submitter.Create(ctx, sessionID, patch)
	}
	if err != nil {
		o.logger.Warn("submission failed",
			zap.String("mode", string(session.Mode)),
			zap.String("entityType", session.EntityType),
			zap.String("item", session.ItemID),
			zap.Error(err),
		)
		return submit.Result{}, err
	}
	o.logger.Info("entity saved",
		zap.String("mode", string(session.Mode)),
		zap.String("entityType", session.EntityType),
		zap.String("entity", result.EntityID),
		zap.Int("claims", len(patch.Claims)),
		zap.Int("removed", len(patch.Remove)),
	)
	return result, nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}

	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.registry.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}

	renderer, err := o.registry.Get(names[0])
	if err != nil {
		return nil, fmt.Errorf("orchestrator: renderer %q: %w", names[0], err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyDecorators(form *model.FormDescription) error {
	if err := model.Decorate(form, o.decorators...); err != nil {
		return fmt.Errorf("orchestrator: decorate form: %w", err)
	}
	return nil
}

func (o *Orchestrator) applyTransformer(ctx context.Context, form *model.FormDescription) error {
	if o.transformer == nil || form == nil {
		return nil
	}
	if err := o.transformer.Transform(ctx, form); err != nil {
		return fmt.Errorf("orchestrator: transform form: %w", err)
	}
	return nil
}
