// Package submit sends entity patches to the write proxy.
package submit

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

	"go.uber.org/zap"

	"github.com/goliatone/go-wikiform/pkg/entity"
	"github.com/goliatone/go-wikiform/pkg/wikibase"
)

// SessionHeader carries the proxy session id.
const SessionHeader = "X-Session-ID"

// Operations reported to the observer.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete-statements"
)

// Outcomes reported to the observer.
const (
	OutcomeOK      = "ok"
	OutcomeExpired = "expired"
	OutcomeFailed  = "failed"
)

const (
	defaultTimeout = 60 * time.Second
	maxBodySize    = 8 << 20
)

// ErrSessionExpired is returned when the proxy answers 401. The caller must
// log in again; the request is never retried.
var ErrSessionExpired = errors.New("submit: session expired")

// SubmissionError is a non-2xx answer from the proxy. Message is the proxy's
// error text verbatim.
type SubmissionError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("submit: %s failed with status %d: %s", e.Op, e.Status, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("submit: %s failed: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("submit: %s failed with status %d", e.Op, e.Status)
	}
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Result is the proxy answer to a successful write.
type Result struct {
	EntityID string          `json:"entityId"`
	Raw      json.RawMessage `json:"raw,omitempty"`
	Removed  []string        `json:"removed,omitempty"`
}

// Submitter writes patches.
type Submitter interface {
	Create(ctx context.Context, sessionID string, patch entity.Patch) (Result, error)
	Update(ctx context.Context, sessionID, itemID string, patch entity.Patch) (Result, error)
}

// Observer receives one outcome per proxy call.
type Observer interface {
	ObserveSubmission(operation, outcome string)
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient injects the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout caps each proxy call. Zero disables the deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout >= 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver reports call outcomes.
func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// Client talks to the proxy's create, update and delete-statements routes.
type Client struct {
	base     string
	http     *http.Client
	timeout  time.Duration
	logger   *zap.Logger
	observer Observer
}

var _ Submitter = (*Client)(nil)

// New returns a Client for the proxy at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("submit: invalid proxy url %q: %w", baseURL, err)
	}
	c := &Client{
		base:    base,
		http:    http.DefaultClient,
		timeout: defaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

// Create posts patch as a new item.
func (c *Client) Create(ctx context.Context, sessionID string, patch entity.Patch) (Result, error) {
	raw, err := c.post(ctx, OpCreate, "/api/create-entity", sessionID, map[string]any{"entity": patch})
	if err != nil {
		return Result{}, err
	}
	res := Result{EntityID: entityID(raw), Raw: raw}
	c.logger.Info("entity created", zap.String("entity", res.EntityID), zap.Int("claims", len(patch.Claims)))
	return res, nil
}

// Update applies patch to itemID, then deletes the statements listed in
// patch.Remove. When the deletion fails the edit has already been applied
// and the error says so.
func (c *Client) Update(ctx context.Context, sessionID, itemID string, patch entity.Patch) (Result, error) {
	if err := wikibase.ValidateItemID(itemID); err != nil {
		return Result{}, fmt.Errorf("submit: %w", err)
	}
	path := "/api/update-entity/" + url.PathEscape(itemID)
	raw, err := c.post(ctx, OpUpdate, path, sessionID, map[string]any{"entity": patch})
	if err != nil {
		return Result{}, err
	}
	res := Result{EntityID: itemID, Raw: raw}
	if id := entityID(raw); id != "" {
		res.EntityID = id
	}

	if len(patch.Remove) > 0 {
		path := "/api/delete-statements/" + url.PathEscape(itemID)
		if _, err := c.post(ctx, OpDelete, path, sessionID, map[string]any{"guids": patch.Remove}); err != nil {
			return res, fmt.Errorf("submit: %s updated but superseded statements remain: %w", itemID, err)
		}
		res.Removed = append([]string(nil), patch.Remove...)
	}
	c.logger.Info("entity updated",
		zap.String("entity", res.EntityID),
		zap.Int("claims", len(patch.Claims)),
		zap.Int("removed", len(res.Removed)),
	)
	return res, nil
}

func (c *Client) post(ctx context.Context, op, path, sessionID string, payload any) (json.RawMessage, error) {
	if strings.TrimSpace(sessionID) == "" {
		c.observe(op, OutcomeExpired)
		return nil, ErrSessionExpired
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("submit: encode %s: %w", op, err)
	}

	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("submit: build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(SessionHeader, sessionID)

	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(op, OutcomeFailed)
		return nil, &SubmissionError{Op: op, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		c.observe(op, OutcomeFailed)
		return nil, &SubmissionError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.observe(op, OutcomeExpired)
		return nil, ErrSessionExpired
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.observe(op, OutcomeFailed)
		return nil, &SubmissionError{Op: op, Status: resp.StatusCode, Message: errorMessage(data)}
	}
	c.observe(op, OutcomeOK)
	return json.RawMessage(data), nil
}

func (c *Client) observe(op, outcome string) {
	if c.observer != nil {
		c.observer.ObserveSubmission(op, outcome)
	}
}

func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}

func entityID(raw []byte) string {
	var payload struct {
		Entity struct {
			ID string `json:"id"`
		} `json:"entity"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return payload.Entity.ID
}
