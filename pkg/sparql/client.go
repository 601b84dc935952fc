package sparql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/knakk/rdf"
	ksparql "github.com/knakk/sparql"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRetries = 2
	maxBodySize    = 32 << 20
	maxErrorBody   = 2 << 10
	acceptHeader   = "application/sparql-results+json, application/json;q=0.9"
)

// Executor runs a query against the graph endpoint.
type Executor interface {
	Execute(ctx context.Context, query string) ([]Row, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, query string) ([]Row, error)

// Execute calls fn.
func (fn ExecutorFunc) Execute(ctx context.Context, query string) ([]Row, error) {
	return fn(ctx, query)
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient injects the HTTP client used for requests.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout caps each attempt. Zero disables the per-attempt deadline.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout >= 0 {
			c.timeout = timeout
		}
	}
}

// WithRetries sets how many times a temporary failure is retried. Zero means
// every failure is returned to the caller as-is.
func WithRetries(retries int) ClientOption {
	return func(c *Client) {
		if retries >= 0 {
			c.retries = retries
		}
	}
}

// WithBackOff replaces the delay policy between retries.
func WithBackOff(factory func() backoff.BackOff) ClientOption {
	return func(c *Client) {
		if factory != nil {
			c.newBackOff = factory
		}
	}
}

// WithObserver reports every attempt to observer.
func WithObserver(observer Observer) ClientOption {
	return func(c *Client) {
		if observer != nil {
			c.observer = observer
		}
	}
}

// WithUserAgent sets the User-Agent header sent to the endpoint.
func WithUserAgent(agent string) ClientOption {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(agent)
	}
}

// Client executes queries over HTTP POST with form-encoded bodies.
type Client struct {
	endpoint   string
	http       *http.Client
	timeout    time.Duration
	retries    int
	newBackOff func() backoff.BackOff
	observer   Observer
	userAgent  string
}

var _ Executor = (*Client)(nil)

// NewClient returns a Client for endpoint.
func NewClient(endpoint string, options ...ClientOption) (*Client, error) {
	if _, err := url.ParseRequestURI(strings.TrimSpace(endpoint)); err != nil {
		return nil, fmt.Errorf("sparql: invalid endpoint %q: %w", endpoint, err)
	}
	c := &Client{
		endpoint:   strings.TrimSpace(endpoint),
		http:       http.DefaultClient,
		timeout:    defaultTimeout,
		retries:    defaultRetries,
		newBackOff: defaultBackOff,
		observer:   nopObserver{},
		userAgent:  "go-wikiform",
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// Execute sends query and returns the decoded rows. Temporary failures are
// retried with backoff up to the configured limit; everything else is
// returned on the first attempt.
func (c *Client) Execute(ctx context.Context, query string) ([]Row, error) {
	if ctx == nil {
		return nil, errors.New("sparql: context is required")
	}
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("sparql: query is empty")
	}

	var (
		rows    []Row
		attempt int
	)
	operation := func() error {
		attempt++
		started := time.Now()
		result, err := c.do(ctx, query)
		c.observer.ObserveQuery(outcomeOf(err), attempt, time.Since(started))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return backoff.Permanent(ctxErr)
			}
			var qerr *QueryError
			if errors.As(err, &qerr) && qerr.Temporary() {
				return err
			}
			return backoff.Permanent(err)
		}
		rows = result
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(c.retries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) do(ctx context.Context, query string) ([]Row, error) {
	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("sparql: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", acceptHeader)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &QueryError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &QueryError{Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &QueryError{Status: resp.StatusCode, Body: truncate(string(body), maxErrorBody)}
	}

	return decodeResults(body)
}

// decodeResults checks for the results.bindings envelope, then lets
// ksparql.ParseJSON turn each binding into an rdf.Term.
func decodeResults(body []byte) ([]Row, error) {
	var envelope struct {
		Results *struct {
			Bindings []json.RawMessage `json:"bindings"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &QueryError{Status: http.StatusOK, Malformed: true, Err: err}
	}
	if envelope.Results == nil || envelope.Results.Bindings == nil {
		return nil, &QueryError{Status: http.StatusOK, Malformed: true, Err: errors.New("missing results.bindings")}
	}

	results, err := ksparql.ParseJSON(bytes.NewReader(body))
	if err != nil {
		return nil, &QueryError{Status: http.StatusOK, Malformed: true, Err: err}
	}

	solutions := results.Solutions()
	rows := make([]Row, 0, len(solutions))
	for _, solution := range solutions {
		row := make(Row, len(solution))
		for name, term := range solution {
			if term == nil {
				continue
			}
			row[name] = Binding{
				Value:             term.String(),
				IsEntityReference: term.Type() == rdf.TermIRI,
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func outcomeOf(err error) string {
	if err == nil {
		return OutcomeOK
	}
	var qerr *QueryError
	if !errors.As(err, &qerr) {
		return OutcomeTransport
	}
	switch {
	case qerr.Malformed:
		return OutcomeMalformed
	case qerr.Status != 0:
		return OutcomeStatus
	default:
		return OutcomeTransport
	}
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
