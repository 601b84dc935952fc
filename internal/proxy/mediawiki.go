package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

const maxResponseSize = 4 << 20

// ErrLoginFailed is returned when MediaWiki rejects the credentials.
var ErrLoginFailed = errors.New("proxy: login failed")

// APIError is an error object returned by the MediaWiki action API.
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	if e.Info == "" {
		return "proxy: mediawiki error " + e.Code
	}
	return "proxy: mediawiki error " + e.Code + ": " + e.Info
}

// BadToken reports whether the csrf token of the session is no longer valid.
func (e *APIError) BadToken() bool {
	return e.Code == "badtoken" || e.Code == "notloggedin" || e.Code == "assertuserfailed"
}

// Account is an authenticated MediaWiki login: its cookies and the csrf
// token edits are signed with.
type Account struct {
	Username string
	client   *http.Client
	csrf     string
}

// MediaWiki talks to a Wikibase action API endpoint.
type MediaWiki struct {
	endpoint  string
	transport http.RoundTripper
	timeout   time.Duration
	userAgent string
}

// MediaWikiOption customises a MediaWiki client.
type MediaWikiOption func(*MediaWiki)

// WithTransport sets the round tripper every account client uses.
func WithTransport(rt http.RoundTripper) MediaWikiOption {
	return func(m *MediaWiki) {
		if rt != nil {
			m.transport = rt
		}
	}
}

// WithRequestTimeout caps each API call.
func WithRequestTimeout(timeout time.Duration) MediaWikiOption {
	return func(m *MediaWiki) {
		if timeout > 0 {
			m.timeout = timeout
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(agent string) MediaWikiOption {
	return func(m *MediaWiki) {
		if agent != "" {
			m.userAgent = agent
		}
	}
}

// NewMediaWiki returns a client for the api.php endpoint.
func NewMediaWiki(endpoint string, opts ...MediaWikiOption) (*MediaWiki, error) {
	endpoint = strings.TrimSpace(endpoint)
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("proxy: invalid api endpoint %q: %w", endpoint, err)
	}
	m := &MediaWiki{
		endpoint:  endpoint,
		transport: http.DefaultTransport,
		timeout:   30 * time.Second,
		userAgent: "go-wikiform-proxy/1.0",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(m)
	}
	return m, nil
}

// Endpoint returns the api.php URL.
func (m *MediaWiki) Endpoint() string {
	return m.endpoint
}

// Login runs the token, login and csrf token round trips with a fresh cookie
// jar and returns the authenticated account.
func (m *MediaWiki) Login(ctx context.Context, username, password string) (*Account, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("proxy: cookie jar: %w", err)
	}
	account := &Account{
		Username: username,
		client:   &http.Client{Jar: jar, Transport: m.transport, Timeout: m.timeout},
	}

	var tokens tokenResponse
	if err := m.get(ctx, account, url.Values{"action": {"query"}, "meta": {"tokens"}, "type": {"login"}}, &tokens); err != nil {
		return nil, fmt.Errorf("proxy: login token: %w", err)
	}
	if tokens.Query.Tokens.LoginToken == "" {
		return nil, errors.New("proxy: login token missing from response")
	}

	var login struct {
		Login struct {
			Result string `json:"result"`
			Reason string `json:"reason"`
		} `json:"login"`
	}
	form := url.Values{
		"action":     {"login"},
		"lgname":     {username},
		"lgpassword": {password},
		"lgtoken":    {tokens.Query.Tokens.LoginToken},
	}
	if err := m.post(ctx, account, form, &login); err != nil {
		return nil, fmt.Errorf("proxy: login: %w", err)
	}
	if login.Login.Result != "Success" {
		reason := login.Login.Reason
		if reason == "" {
			reason = login.Login.Result
		}
		return nil, fmt.Errorf("%w: %s", ErrLoginFailed, reason)
	}

	var csrf tokenResponse
	if err := m.get(ctx, account, url.Values{"action": {"query"}, "meta": {"tokens"}}, &csrf); err != nil {
		return nil, fmt.Errorf("proxy: csrf token: %w", err)
	}
	if csrf.Query.Tokens.CSRFToken == "" {
		return nil, errors.New("proxy: csrf token missing from response")
	}
	account.csrf = csrf.Query.Tokens.CSRFToken
	return account, nil
}

// EditEntity sends data through wbeditentity. An empty id creates a new item.
// The decoded API response is returned unchanged.
func (m *MediaWiki) EditEntity(ctx context.Context, account *Account, id string, data json.RawMessage) (json.RawMessage, error) {
	form := url.Values{
		"action": {"wbeditentity"},
		"data":   {string(data)},
		"token":  {account.csrf},
	}
	if id == "" {
		form.Set("new", "item")
	} else {
		form.Set("id", id)
	}
	var raw json.RawMessage
	if err := m.post(ctx, account, form, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// RemoveClaims deletes statements by GUID through wbremoveclaims.
func (m *MediaWiki) RemoveClaims(ctx context.Context, account *Account, guids []string) (json.RawMessage, error) {
	form := url.Values{
		"action": {"wbremoveclaims"},
		"claim":  {strings.Join(guids, "|")},
		"token":  {account.csrf},
	}
	var raw json.RawMessage
	if err := m.post(ctx, account, form, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

type tokenResponse struct {
	Query struct {
		Tokens struct {
			LoginToken string `json:"logintoken"`
			CSRFToken  string `json:"csrftoken"`
		} `json:"tokens"`
	} `json:"query"`
}

func (m *MediaWiki) get(ctx context.Context, account *Account, params url.Values, out any) error {
	params.Set("format", "json")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	return m.do(account, req, out)
}

func (m *MediaWiki) post(ctx context.Context, account *Account, form url.Values, out any) error {
	form.Set("format", "json")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return m.do(account, req, out)
}

func (m *MediaWiki) do(account *Account, req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := account.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	return json.Unmarshal(body, out)
}
