package orchestrator_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-wikiform/pkg/config"
	"github.com/goliatone/go-wikiform/pkg/entity"
	"github.com/goliatone/go-wikiform/pkg/orchestrator"
	"github.com/goliatone/go-wikiform/pkg/render"
	"github.com/goliatone/go-wikiform/pkg/schema"
	"github.com/goliatone/go-wikiform/pkg/sparql"
	"github.com/goliatone/go-wikiform/pkg/strategy"
	"github.com/goliatone/go-wikiform/pkg/submit"
	"github.com/goliatone/go-wikiform/pkg/testsupport"
)

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Wikibase.URL = testsupport.BaseURL
	cfg.Wikibase.SPARQLEndpoint = testsupport.BaseURL + "/sparql"
	cfg.Properties.InstanceOf = "P1"
	cfg.Exemplars = map[string]config.Exemplar{
		strategy.HumanKey: {ID: "Q500", Label: "Human"},
		"Artifact":        {ID: "Q600", Label: "Artifact"},
	}
	return cfg
}

// humanEndpoint models exemplar Q500 (type Q5) with the two name properties,
// and item Q42 of the same type with a given name statement.
func humanEndpoint() *testsupport.FakeEndpoint {
	endpoint := testsupport.NewFakeEndpoint()
	endpoint.OnInstanceOf("Q500").Return(sparql.Row{
		"instanceOf":      testsupport.Entity("Q5"),
		"instanceOfLabel": testsupport.Literal("human"),
	})
	endpoint.OnInstanceOf("Q600").Return(sparql.Row{
		"instanceOf":      testsupport.Entity("Q6"),
		"instanceOfLabel": testsupport.Literal("artifact"),
	})
	endpoint.OnInstanceOf("Q42").Return(sparql.Row{
		"instanceOf":      testsupport.Entity("Q5"),
		"instanceOfLabel": testsupport.Literal("human"),
	})
	endpoint.OnExemplarProperties("Q500").Return(
		sparql.Row{
			"property":      testsupport.Entity("P148"),
			"propertyLabel": testsupport.Literal("family name"),
			"datatype":      testsupport.Datatype("String"),
		},
		sparql.Row{
			"property":      testsupport.Entity("P147"),
			"propertyLabel": testsupport.Literal("given name"),
			"datatype":      testsupport.Datatype("String"),
		},
	)
	endpoint.OnItemData("Q42").Return(sparql.Row{
		"property":  testsupport.Entity("P147"),
		"statement": testsupport.Statement("Q42-AAA"),
		"value":     testsupport.Literal("Ada"),
		"datatype":  testsupport.Datatype("String"),
	})
	endpoint.OnLabelDescription("Q42").Return(sparql.Row{
		"label":       testsupport.Literal("Ada Lovelace"),
		"description": testsupport.Literal("mathematician"),
	})
	return endpoint
}

func newOrchestrator(t *testing.T, endpoint sparql.Executor, opts ...orchestrator.Option) *orchestrator.Orchestrator {
	t.Helper()
	base := []orchestrator.Option{
		orchestrator.WithConfig(testConfig()),
		orchestrator.WithExecutor(endpoint),
	}
	o, err := orchestrator.New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	return o
}

func TestOpenCreate_AppliesTypeStrategy(t *testing.T) {
	o := newOrchestrator(t, humanEndpoint())

	session, err := o.OpenCreate(context.Background(), strategy.HumanKey, false)
	if err != nil {
		t.Fatalf("open create: %v", err)
	}

	if session.Mode != schema.ModeCreate || session.TypeValue != "Q5" || session.ExemplarID != "Q500" {
		t.Fatalf("unexpected session header: %+v", session)
	}
	if diff := cmp.Diff([]string{"P147", "P148"}, session.Schema.PropertyIDs()); diff != "" {
		t.Fatalf("property order mismatch (-want +got):\n%s", diff)
	}
	for _, id := range []string{"P147", "P148"} {
		p, _ := session.Schema.Property(id)
		if !p.Required {
			t.Fatalf("expected %s to be required", id)
		}
	}
}

func TestOpenCreate_UnknownEntityType(t *testing.T) {
	o := newOrchestrator(t, humanEndpoint())

	_, err := o.OpenCreate(context.Background(), "Ship", false)
	var gerr *orchestrator.GenerationError
	if !errors.As(err, &gerr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if gerr.Stage != orchestrator.StageConfig {
		t.Fatalf("stage = %q", gerr.Stage)
	}
	if !errors.Is(err, schema.ErrNoExemplar) {
		t.Fatalf("expected ErrNoExemplar, got %v", err)
	}
}

func TestOpenCreate_PropertyFailureNamesStage(t *testing.T) {
	endpoint := humanEndpoint()
	failing := testsupport.NewFakeEndpoint()
	failing.OnExemplarProperties("Q500").Fail(&sparql.QueryError{Status: 503, Body: "busy"})
	executor := sparql.ExecutorFunc(func(ctx context.Context, query string) ([]sparql.Row, error) {
		if strings.Contains(query, "?propertyDirect") {
			return failing.Execute(ctx, query)
		}
		return endpoint.Execute(ctx, query)
	})
	o := newOrchestrator(t, executor)

	_, err := o.OpenCreate(context.Background(), strategy.HumanKey, false)
	var gerr *orchestrator.GenerationError
	if !errors.As(err, &gerr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if gerr.Stage != orchestrator.StageProperties {
		t.Fatalf("stage = %q", gerr.Stage)
	}
	var qerr *sparql.QueryError
	if !errors.As(err, &qerr) || qerr.Status != 503 {
		t.Fatalf("expected wrapped query error, got %v", err)
	}
}

func TestOpenCreate_CachesSchemaUntilInvalidated(t *testing.T) {
	endpoint := humanEndpoint()
	o := newOrchestrator(t, endpoint)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := o.OpenCreate(ctx, strategy.HumanKey, false); err != nil {
			t.Fatalf("open create %d: %v", i, err)
		}
	}
	if got := endpoint.Count("?propertyDirect"); got != 1 {
		t.Fatalf("expected one property listing, got %d", got)
	}

	if _, err := o.OpenCreate(ctx, strategy.HumanKey, true); err != nil {
		t.Fatalf("forced refresh: %v", err)
	}
	if got := endpoint.Count("?propertyDirect"); got != 2 {
		t.Fatalf("expected forced refresh to query again, got %d", got)
	}

	if n := o.InvalidateSchema(strategy.HumanKey); n != 1 {
		t.Fatalf("invalidated %d entries", n)
	}
	if _, err := o.OpenCreate(ctx, strategy.HumanKey, false); err != nil {
		t.Fatalf("open after invalidate: %v", err)
	}
	if got := endpoint.Count("?propertyDirect"); got != 3 {
		t.Fatalf("expected a rebuild after invalidation, got %d", got)
	}
}

func TestOpenEdit_PrefillsFromItem(t *testing.T) {
	o := newOrchestrator(t, humanEndpoint())

	session, err := o.OpenEdit(context.Background(), "Q42", false)
	if err != nil {
		t.Fatalf("open edit: %v", err)
	}
	if session.EntityType != strategy.HumanKey || session.ItemID != "Q42" || session.Mode != schema.ModeEdit {
		t.Fatalf("unexpected session header: %+v", session)
	}
	if session.Snapshot == nil || session.Snapshot.Label != "Ada Lovelace" {
		t.Fatalf("expected snapshot with label, got %+v", session.Snapshot)
	}

	form, err := o.Describe(context.Background(), session)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	field, ok := form.Field("P147")
	if !ok {
		t.Fatalf("expected P147 field")
	}
	if diff := cmp.Diff([]string{"Ada"}, field.Initial); diff != "" {
		t.Fatalf("P147 initial mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenEdit_RejectsMalformedID(t *testing.T) {
	o := newOrchestrator(t, humanEndpoint())
	if _, err := o.OpenEdit(context.Background(), "P42", false); err == nil {
		t.Fatalf("expected malformed id error")
	}
}

func TestOpenEdit_TypeWithoutExemplar(t *testing.T) {
	endpoint := humanEndpoint()
	endpoint.OnInstanceOf("Q77").Return(sparql.Row{"instanceOf": testsupport.Entity("Q999")})
	o := newOrchestrator(t, endpoint)

	_, err := o.OpenEdit(context.Background(), "Q77", false)
	var gerr *orchestrator.GenerationError
	if !errors.As(err, &gerr) || gerr.Stage != orchestrator.StageExemplar {
		t.Fatalf("expected exemplar stage error, got %v", err)
	}
	if !errors.Is(err, schema.ErrNoExemplar) {
		t.Fatalf("expected ErrNoExemplar, got %v", err)
	}
}

func TestBuildPatch_MergesStrategyViolations(t *testing.T) {
	o := newOrchestrator(t, humanEndpoint())
	ctx := context.Background()

	session, err := o.OpenCreate(ctx, strategy.HumanKey, false)
	if err != nil {
		t.Fatalf("open create: %v", err)
	}

	_, err = o.BuildPatch(ctx, session, url.Values{"label": {""}})
	var verr *entity.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if diff := cmp.Diff([]string{strategy.FormLevel, schema.FieldLabel}, verr.FieldNames()); diff != "" {
		t.Fatalf("violation fields mismatch (-want +got):\n%s", diff)
	}
}

type recordingSubmitter struct {
	created []entity.Patch
	updated map[string]entity.Patch
	session string
}

func (r *recordingSubmitter) Create(_ context.Context, sessionID string, patch entity.Patch) (submit.Result, error) {
	r.session = sessionID
	r.created = append(r.created, patch)
	return submit.Result{EntityID: "Q1000"}, nil
}

func (r *recordingSubmitter) Update(_ context.Context, sessionID, itemID string, patch entity.Patch) (submit.Result, error) {
	r.session = sessionID
	if r.updated == nil {
		r.updated = map[string]entity.Patch{}
	}
	r.updated[itemID] = patch
	return submit.Result{EntityID: itemID, Removed: patch.Remove}, nil
}

func TestSubmit_CreateAndUpdate(t *testing.T) {
	sub := &recordingSubmitter{}
	o := newOrchestrator(t, humanEndpoint(), orchestrator.WithSubmitter(sub))
	ctx := context.Background()

	created, err := o.OpenCreate(ctx, strategy.HumanKey, false)
	if err != nil {
		t.Fatalf("open create: %v", err)
	}
	res, err := o.Submit(ctx, created, url.Values{"label": {"Grace Hopper"}, "P147": {"Grace"}, "P148": {"Hopper"}}, "s-1")
	if err != nil {
		t.Fatalf("submit create: %v", err)
	}
	if res.EntityID != "Q1000" || sub.session != "s-1" || len(sub.created) != 1 {
		t.Fatalf("unexpected create result %+v (%d patches)", res, len(sub.created))
	}
	if claims := sub.created[0].ClaimsFor("P1"); len(claims) != 1 {
		t.Fatalf("expected a type claim, got %d", len(claims))
	}

	edited, err := o.OpenEdit(ctx, "Q42", false)
	if err != nil {
		t.Fatalf("open edit: %v", err)
	}
	state := url.Values{"label": {"Ada Lovelace"}, "P147": {"Augusta Ada"}, "P148": {"Lovelace"}}
	if _, err := o.Submit(ctx, edited, state, "s-2"); err != nil {
		t.Fatalf("submit update: %v", err)
	}
	patch, ok := sub.updated["Q42"]
	if !ok {
		t.Fatalf("expected update of Q42")
	}
	if diff := cmp.Diff([]string{"Q42$AAA"}, patch.Remove); diff != "" {
		t.Fatalf("removed statements mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmit_WithoutSubmitter(t *testing.T) {
	o := newOrchestrator(t, humanEndpoint())
	if _, err := o.Submit(context.Background(), orchestrator.FormSession{}, nil, ""); !errors.Is(err, orchestrator.ErrNoSubmitter) {
		t.Fatalf("expected ErrNoSubmitter, got %v", err)
	}
}

func TestRender_UsesTransformerAndNamedRenderer(t *testing.T) {
	preset, err := orchestrator.NewPresetTransformer([]byte("Human:\n  fields:\n    P147: {label: First name}\n"))
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	o := newOrchestrator(t, humanEndpoint(), orchestrator.WithTransformer(preset))
	ctx := context.Background()

	session, err := o.OpenCreate(ctx, strategy.HumanKey, false)
	if err != nil {
		t.Fatalf("open create: %v", err)
	}

	out, contentType, err := o.Render(ctx, session, render.JSONRendererName, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render json: %v", err)
	}
	if !strings.HasPrefix(contentType, "application/json") {
		t.Fatalf("content type = %q", contentType)
	}
	if !strings.Contains(string(out), `"First name"`) {
		t.Fatalf("expected preset label in output:\n%s", out)
	}

	html, contentType, err := o.Render(ctx, session, "", render.RenderOptions{})
	if err != nil {
		t.Fatalf("render default: %v", err)
	}
	if !strings.HasPrefix(contentType, "text/html") || !strings.Contains(string(html), "First name") {
		t.Fatalf("expected html output with preset label, got %q", contentType)
	}

	if _, _, err := o.Render(ctx, session, "missing", render.RenderOptions{}); err == nil {
		t.Fatalf("expected unknown renderer error")
	}
}
