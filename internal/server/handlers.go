package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-wikiform/pkg/entity"
	"github.com/goliatone/go-wikiform/pkg/orchestrator"
	"github.com/goliatone/go-wikiform/pkg/render"
	"github.com/goliatone/go-wikiform/pkg/schema"
	"github.com/goliatone/go-wikiform/pkg/submit"
	"github.com/goliatone/go-wikiform/pkg/wikibase"
)

// SessionCookie holds the proxy session id for browsers that logged in
// through the proxy.
const SessionCookie = "wikiform_session"

const maxFormSize = 2 << 20

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	o := s.forms.Load()
	var b strings.Builder
	b.WriteString("<!doctype html><html><head><meta charset=\"utf-8\"><title>wikiform</title></head><body><h1>Forms</h1><ul>")
	cfg := o.Config()
	for _, key := range o.EntityTypes() {
		label := key
		if ex, ok := cfg.Exemplar(key); ok && ex.Label != "" {
			label = ex.Label
		}
		fmt.Fprintf(&b, "<li><a href=\"/forms/%s/new\">%s</a></li>", url.PathEscape(key), html.EscapeString(label))
	}
	b.WriteString("</ul></body></html>")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

func (s *Server) handleNewForm(w http.ResponseWriter, r *http.Request) {
	o := s.forms.Load()
	session, err := o.OpenCreate(r.Context(), chi.URLParam(r, "type"), refreshRequested(r))
	if err != nil {
		s.openError(w, err)
		return
	}
	s.renderForm(w, r, o, session, http.StatusOK, render.RenderOptions{})
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	o := s.forms.Load()
	session, err := o.OpenEdit(r.Context(), chi.URLParam(r, "id"), refreshRequested(r))
	if err != nil {
		s.openError(w, err)
		return
	}
	s.renderForm(w, r, o, session, http.StatusOK, render.RenderOptions{})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	o := s.forms.Load()
	session, err := o.OpenCreate(r.Context(), chi.URLParam(r, "type"), false)
	if err != nil {
		s.openError(w, err)
		return
	}
	s.submit(w, r, o, session)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	o := s.forms.Load()
	session, err := o.OpenEdit(r.Context(), chi.URLParam(r, "id"), false)
	if err != nil {
		s.openError(w, err)
		return
	}
	s.submit(w, r, o, session)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request, o *orchestrator.Orchestrator, session orchestrator.FormSession) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	state := cloneValues(r.PostForm)
	sessionID := state.Get(render.SessionFieldName)
	state.Del(render.SessionFieldName)
	if sessionID == "" {
		sessionID = sessionFromRequest(r)
	}

	retry := render.RenderOptions{Values: state}
	result, err := o.Submit(r.Context(), session, state, sessionID)
	if err != nil {
		var (
			verr *entity.ValidationError
			serr *submit.SubmissionError
		)
		switch {
		case errors.As(err, &verr):
			retry.Errors = verr.Fields()
			s.renderForm(w, r, o, session, http.StatusUnprocessableEntity, retry)
		case errors.Is(err, submit.ErrSessionExpired):
			retry.FormErrors = []string{"Your session has expired. Please log in again."}
			s.renderForm(w, r, o, session, http.StatusUnauthorized, retry)
		case errors.Is(err, orchestrator.ErrNoSubmitter):
			writeError(w, http.StatusServiceUnavailable, "submissions are not configured")
		case errors.As(err, &serr):
			retry.FormErrors = []string{serr.Error()}
			s.renderForm(w, r, o, session, http.StatusBadGateway, retry)
		default:
			s.logger.Error("submit failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/items/"+url.PathEscape(result.EntityID)+"/edit?saved=1", http.StatusSeeOther)
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, o *orchestrator.Orchestrator, session orchestrator.FormSession, status int, opts render.RenderOptions) {
	query := r.URL.Query()
	opts.Action = r.URL.Path
	opts.Subset = render.ParseSubset(query.Get("sections"), query.Get("properties"))
	opts.Locale = query.Get("locale")
	if id := sessionFromRequest(r); id != "" {
		opts.Hidden = render.MergeHiddenFields(opts.Hidden, render.SessionField(id))
	} else if id := r.PostFormValue(render.SessionFieldName); id != "" {
		opts.Hidden = render.MergeHiddenFields(opts.Hidden, render.SessionField(id))
	}

	name := query.Get("renderer")
	if name == "" && wantsJSON(r) {
		name = render.JSONRendererName
	}
	output, contentType, err := o.Render(r.Context(), session, name, opts)
	if errors.Is(err, render.ErrUnknownRenderer) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("render failed", zap.String("entityType", session.EntityType), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(output)
}

func (s *Server) handleTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"types": s.forms.Load().EntityTypes()})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	session, err := s.forms.Load().OpenCreate(r.Context(), chi.URLParam(r, "type"), refreshRequested(r))
	if err != nil {
		s.openError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entityType": session.EntityType,
		"exemplar":   session.ExemplarID,
		"type":       map[string]string{"id": session.TypeValue, "label": session.TypeLabel},
		"schema":     session.Schema,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "type")
	n := s.forms.Load().InvalidateSchema(entityType)
	s.logger.Info("schema cache invalidated", zap.String("entityType", entityType), zap.Int("entries", n))
	writeJSON(w, http.StatusOK, map[string]int{"invalidated": n})
}

func (s *Server) handleLabel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := wikibase.ValidateItemID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	label, err := s.forms.Load().ItemLabel(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "label": label})
}

func (s *Server) openError(w http.ResponseWriter, err error) {
	var gerr *orchestrator.GenerationError
	switch {
	case errors.Is(err, wikibase.ErrInvalidEntityID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &gerr):
		status := http.StatusBadGateway
		if errors.Is(err, schema.ErrNoExemplar) || errors.Is(err, schema.ErrTypeNotFound) {
			status = http.StatusNotFound
		}
		s.logger.Warn("form generation failed", zap.String("stage", gerr.Stage), zap.Error(gerr.Err))
		writeJSON(w, status, map[string]string{"error": gerr.Err.Error(), "stage": gerr.Stage})
	default:
		s.logger.Error("form generation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func sessionFromRequest(r *http.Request) string {
	if id := r.Header.Get(submit.SessionHeader); id != "" {
		return id
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return r.URL.Query().Get("session")
}

func refreshRequested(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("refresh"))
	return err == nil && v
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func cloneValues(in url.Values) url.Values {
	out := make(url.Values, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
