package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/goliatone/go-wikiform/internal/server"
	"github.com/goliatone/go-wikiform/pkg/config"
	"github.com/goliatone/go-wikiform/pkg/entity"
	"github.com/goliatone/go-wikiform/pkg/metrics"
	"github.com/goliatone/go-wikiform/pkg/orchestrator"
	"github.com/goliatone/go-wikiform/pkg/sparql"
	"github.com/goliatone/go-wikiform/pkg/strategy"
	"github.com/goliatone/go-wikiform/pkg/submit"
	"github.com/goliatone/go-wikiform/pkg/testsupport"
)

type fakeSubmitter struct {
	mu       sync.Mutex
	sessions []string
	patches  []entity.Patch
}

func (f *fakeSubmitter) Create(_ context.Context, sessionID string, patch entity.Patch) (submit.Result, error) {
	if sessionID == "" {
		return submit.Result{}, submit.ErrSessionExpired
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, sessionID)
	f.patches = append(f.patches, patch)
	return submit.Result{EntityID: "Q1000"}, nil
}

func (f *fakeSubmitter) Update(ctx context.Context, sessionID, itemID string, patch entity.Patch) (submit.Result, error) {
	res, err := f.Create(ctx, sessionID, patch)
	res.EntityID = itemID
	return res, err
}

func endpoint() *testsupport.FakeEndpoint {
	e := testsupport.NewFakeEndpoint()
	e.OnInstanceOf("Q500").Return(sparql.Row{
		"instanceOf":      testsupport.Entity("Q5"),
		"instanceOfLabel": testsupport.Literal("human"),
	})
	e.OnExemplarProperties("Q500").Return(
		sparql.Row{
			"property":      testsupport.Entity("P147"),
			"propertyLabel": testsupport.Literal("given name"),
			"datatype":      testsupport.Datatype("String"),
		},
		sparql.Row{
			"property":      testsupport.Entity("P148"),
			"propertyLabel": testsupport.Literal("family name"),
			"datatype":      testsupport.Datatype("String"),
		},
	)
	e.OnEntityLabel("Q7").Return(sparql.Row{"label": testsupport.Literal("Jerusalem")})
	return e
}

func newServer(t *testing.T) (*server.Server, *fakeSubmitter) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Wikibase.URL = testsupport.BaseURL
	cfg.Exemplars = map[string]config.Exemplar{strategy.HumanKey: {ID: "Q500", Label: "Person"}}

	reg := prometheus.NewRegistry()
	sub := &fakeSubmitter{}
	o, err := orchestrator.New(
		orchestrator.WithConfig(cfg),
		orchestrator.WithExecutor(endpoint()),
		orchestrator.WithSubmitter(sub),
		orchestrator.WithMetrics(metrics.MustNew(reg)),
	)
	require.NoError(t, err)

	s, err := server.New(context.Background(), o, server.WithGatherer(reg))
	require.NoError(t, err)
	return s, sub
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_NewFormCarriesSession(t *testing.T) {
	s, _ := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/forms/Human/new", nil)
	req.AddCookie(&http.Cookie{Name: server.SessionCookie, Value: "s-1"})
	rec := do(t, s.Handler(), req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	body := rec.Body.String()
	assert.Contains(t, body, `name="_session" value="s-1"`)
	assert.Contains(t, body, `action="/forms/Human/new"`)
	assert.Contains(t, body, "given name")
}

func TestServer_NewFormAsJSON(t *testing.T) {
	s, _ := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/forms/Human/new?renderer=json", nil)
	rec := do(t, s.Handler(), req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Contains(t, payload, "form")
}

func TestServer_UnknownRendererIsBadRequest(t *testing.T) {
	s, _ := newServer(t)
	rec := do(t, s.Handler(), httptest.NewRequest(http.MethodGet, "/forms/Human/new?renderer=pdf", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_UnknownTypeIsNotFound(t *testing.T) {
	s, _ := newServer(t)

	rec := do(t, s.Handler(), httptest.NewRequest(http.MethodGet, "/forms/Ship/new", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, orchestrator.StageConfig, payload["stage"])
}

func TestServer_MalformedItemIDIsBadRequest(t *testing.T) {
	s, _ := newServer(t)
	rec := do(t, s.Handler(), httptest.NewRequest(http.MethodGet, "/items/abc/edit", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestServer_SubmitValidationFailureRerenders(t *testing.T) {
	s, sub := newServer(t)

	rec := do(t, s.Handler(), postForm("/forms/Human/new", url.Values{
		"label":    {"Nobody"},
		"_session": {"s-1"},
	}))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "At least one name field")
	assert.Contains(t, body, `value="Nobody"`)
	assert.Contains(t, body, `name="_session" value="s-1"`)
	assert.Empty(t, sub.patches)
}

func TestServer_SubmitCreatesAndRedirects(t *testing.T) {
	s, sub := newServer(t)

	rec := do(t, s.Handler(), postForm("/forms/Human/new", url.Values{
		"label":    {"Grace Hopper"},
		"P147":     {"Grace"},
		"P148":     {"Hopper"},
		"_session": {"s-1"},
	}))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/items/Q1000/edit?saved=1", rec.Header().Get("Location"))
	require.Len(t, sub.patches, 1)
	assert.Equal(t, []string{"s-1"}, sub.sessions)
	assert.Len(t, sub.patches[0].ClaimsFor("P147"), 1)
}

func TestServer_SubmitWithoutSessionIsUnauthorized(t *testing.T) {
	s, _ := newServer(t)

	rec := do(t, s.Handler(), postForm("/forms/Human/new", url.Values{
		"label": {"Grace Hopper"},
		"P147":  {"Grace"},
		"P148":  {"Hopper"},
	}))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Your session has expired")
}

func TestServer_SchemaAPI(t *testing.T) {
	s, _ := newServer(t)
	h := s.Handler()

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/schema/Human", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		EntityType string `json:"entityType"`
		Exemplar   string `json:"exemplar"`
		Type       struct {
			ID string `json:"id"`
		} `json:"type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, strategy.HumanKey, payload.EntityType)
	assert.Equal(t, "Q500", payload.Exemplar)
	assert.Equal(t, "Q5", payload.Type.ID)

	rec = do(t, h, httptest.NewRequest(http.MethodPost, "/api/schema/Human/refresh", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"invalidated":1}`, rec.Body.String())

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/types", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"types":["Human"]}`, rec.Body.String())

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/labels/Q7", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"Q7","label":"Jerusalem"}`, rec.Body.String())
}

func TestServer_AmbientRoutes(t *testing.T) {
	s, _ := newServer(t)
	h := s.Handler()

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])

	// A schema build records query and cache samples.
	do(t, h, httptest.NewRequest(http.MethodGet, "/api/schema/Human", nil))
	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/assets/wikiform.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/forms/Human/new">Person<`)
}

func TestServer_ServeShutsDownOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s, _ := newServer(t)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, listener)
	}()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + listener.Addr().String() + "/healthz")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	client.CloseIdleConnections()
}
