// Package server is the HTTP form service: it renders create and edit forms,
// accepts their submissions, exposes inferred schemas as JSON and optionally
// mounts the write proxy on the same router.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/goliatone/go-wikiform/internal/proxy"
	"github.com/goliatone/go-wikiform/pkg/orchestrator"
	"github.com/goliatone/go-wikiform/pkg/renderers/vanilla"
)

const defaultShutdownGrace = 10 * time.Second

// Option customises a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithProxy mounts the write proxy routes.
func WithProxy(h *proxy.Handler) Option {
	return func(s *Server) {
		s.proxy = h
	}
}

// WithGatherer serves metrics from g on /metrics. Without it the default
// registry is used.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.gatherer = g
		}
	}
}

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// WithShutdownGrace bounds how long Run waits for in-flight requests.
func WithShutdownGrace(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.grace = d
		}
	}
}

// Server holds the routes of the form service.
type Server struct {
	forms    atomic.Pointer[orchestrator.Orchestrator]
	proxy    *proxy.Handler
	logger   *zap.Logger
	gatherer prometheus.Gatherer
	addr     string
	grace    time.Duration
	openapi  []byte
	router   chi.Router
}

// New validates the service description and builds the router.
func New(ctx context.Context, forms *orchestrator.Orchestrator, opts ...Option) (*Server, error) {
	if forms == nil {
		return nil, errors.New("server: orchestrator is required")
	}
	s := &Server{
		logger:   zap.NewNop(),
		gatherer: prometheus.DefaultGatherer,
		addr:     ":3000",
		grace:    defaultShutdownGrace,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	s.forms.Store(forms)

	doc, err := LoadOpenAPI(ctx)
	if err != nil {
		return nil, err
	}
	if s.openapi, err = marshalOpenAPI(doc); err != nil {
		return nil, err
	}
	s.router = s.routes(doc)
	return s, nil
}

// Orchestrator returns the orchestrator currently serving requests.
func (s *Server) Orchestrator() *orchestrator.Orchestrator {
	return s.forms.Load()
}

// SetOrchestrator swaps the orchestrator, for example after the
// configuration file changed. Requests in flight keep the old one.
func (s *Server) SetOrchestrator(o *orchestrator.Orchestrator) {
	if o != nil {
		s.forms.Store(o)
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes(doc *openapi3.T) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/forms/{type}/new", s.handleNewForm)
	r.Post("/forms/{type}/new", s.handleCreate)
	r.Get("/items/{id}/edit", s.handleEditForm)
	r.Post("/items/{id}/edit", s.handleUpdate)

	r.Get("/api/types", s.handleTypes)
	r.Get("/api/schema/{type}", s.handleSchema)
	r.Post("/api/schema/{type}/refresh", s.handleRefresh)
	r.Get("/api/labels/{id}", s.handleLabel)
	if s.proxy != nil {
		s.proxy.Routes(r)
	}

	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServerFS(vanilla.AssetsFS())))
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(s.openapi)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": doc.Info.Version})
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully. The proxy
// session cleanup loop runs alongside when the proxy is mounted.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	cleanupDone := make(chan struct{})
	if s.proxy != nil {
		go func() {
			defer close(cleanupDone)
			s.proxy.Sessions().Run(runCtx, 0, func(n int) {
				s.logger.Debug("expired proxy sessions dropped", zap.Int("count", n))
			})
		}()
	} else {
		close(cleanupDone)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info("listening", zap.String("addr", listener.Addr().String()), zap.Bool("proxy", s.proxy != nil))

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), s.grace)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("shutdown", zap.Error(err))
	}
	cancel()
	<-cleanupDone
	for err := range errCh {
		if serveErr == nil {
			serveErr = err
		}
	}
	if serveErr != nil {
		return fmt.Errorf("server: serve: %w", serveErr)
	}
	return nil
}
