// Package proxy is the write proxy between the form service and a Wikibase
// action API. It logs users in, keeps their cookies and csrf tokens in
// memory sessions, and forwards entity edits and statement deletions.
package proxy

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-wikiform/pkg/submit"
	"github.com/goliatone/go-wikiform/pkg/wikibase"
)

const maxRequestSize = 2 << 20

// Handler serves the proxy routes.
type Handler struct {
	wiki        *MediaWiki
	sessions    *Store
	logger      *zap.Logger
	wikibaseURL string
}

// HandlerOption customises a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithWikibaseURL is reported by the health route.
func WithWikibaseURL(u string) HandlerOption {
	return func(h *Handler) {
		h.wikibaseURL = u
	}
}

// NewHandler wires the proxy routes to wiki and sessions.
func NewHandler(wiki *MediaWiki, sessions *Store, opts ...HandlerOption) (*Handler, error) {
	if wiki == nil {
		return nil, errors.New("proxy: mediawiki client is required")
	}
	if sessions == nil {
		sessions = NewStore()
	}
	h := &Handler{wiki: wiki, sessions: sessions, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h, nil
}

// Sessions exposes the session store so callers can run its cleanup loop.
func (h *Handler) Sessions() *Store {
	return h.sessions
}

// Routes registers the proxy routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/login", h.HandleLogin)
	r.Post("/api/create-entity", h.HandleCreateEntity)
	r.Post("/api/update-entity/{id}", h.HandleUpdateEntity)
	r.Post("/api/delete-statements/{id}", h.HandleDeleteStatements)
	r.Get("/api/health", h.HandleHealth)
}

// Router returns a standalone router with only the proxy routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

// HandleLogin authenticates against MediaWiki and opens a session.
// POST /api/login with a JSON or form body carrying username and password.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form body")
			return
		}
		body.Username = r.PostForm.Get("username")
		body.Password = r.PostForm.Get("password")
	}
	if body.Username == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password required")
		return
	}

	account, err := h.wiki.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, ErrLoginFailed) {
			h.logger.Info("login rejected", zap.String("user", body.Username), zap.Error(err))
			writeError(w, http.StatusUnauthorized, strings.TrimPrefix(err.Error(), "proxy: "))
			return
		}
		h.logger.Warn("login failed", zap.String("user", body.Username), zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	session := h.sessions.Create(account)
	h.sessions.Cleanup()
	h.logger.Info("session opened", zap.String("user", body.Username))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"sessionId": session.ID,
		"message":   "Logged in successfully",
	})
}

// HandleCreateEntity creates a new item from {"entity": {...}}.
// POST /api/create-entity
func (h *Handler) HandleCreateEntity(w http.ResponseWriter, r *http.Request) {
	h.editEntity(w, r, "")
}

// HandleUpdateEntity applies {"entity": {...}} to an existing item.
// POST /api/update-entity/{id}
func (h *Handler) HandleUpdateEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := wikibase.ValidateItemID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.editEntity(w, r, id)
}

func (h *Handler) editEntity(w http.ResponseWriter, r *http.Request, id string) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Entity json.RawMessage `json:"entity"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(body.Entity) == 0 || string(body.Entity) == "null" {
		writeError(w, http.StatusBadRequest, "Entity data required")
		return
	}

	raw, err := h.wiki.EditEntity(r.Context(), session.Account, id, body.Entity)
	if err != nil {
		h.upstreamError(w, session, "edit entity", err)
		return
	}
	op := submit.OpCreate
	if id != "" {
		op = submit.OpUpdate
	}
	h.logger.Info("entity edited", zap.String("op", op), zap.String("item", id), zap.String("user", session.Account.Username))
	writeRaw(w, raw)
}

// HandleDeleteStatements removes statements by GUID from {"guids": [...]}.
// POST /api/delete-statements/{id}
func (h *Handler) HandleDeleteStatements(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var body struct {
		GUIDs []string `json:"guids"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(body.GUIDs) == 0 {
		writeError(w, http.StatusBadRequest, "Statement GUIDs required")
		return
	}

	raw, err := h.wiki.RemoveClaims(r.Context(), session.Account, body.GUIDs)
	if err != nil {
		h.upstreamError(w, session, "delete statements", err)
		return
	}
	var result struct {
		Claims []string `json:"claims"`
	}
	_ = json.Unmarshal(raw, &result)
	h.logger.Info("statements deleted", zap.String("item", id), zap.Int("count", len(body.GUIDs)))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "claims": result.Claims})
}

// HandleHealth reports liveness.
// GET /api/health
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"wikibaseUrl": h.wikibaseURL,
		"sessions":    h.sessions.Len(),
	})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	session, ok := h.sessions.Get(r.Header.Get(submit.SessionHeader))
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return nil, false
	}
	return session, true
}

func (h *Handler) upstreamError(w http.ResponseWriter, session *Session, op string, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.BadToken() {
			h.sessions.Delete(session.ID)
			writeError(w, http.StatusUnauthorized, "Session expired")
			return
		}
		writeError(w, http.StatusBadRequest, apiErr.Info)
		return
	}
	h.logger.Warn("mediawiki request failed", zap.String("op", op), zap.Error(err))
	writeError(w, http.StatusBadGateway, err.Error())
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestSize)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
