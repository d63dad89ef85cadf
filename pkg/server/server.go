// Package server exposes the packer over HTTP.
//
// Clients post sprite sizes and constraints, the server packs them with the
// shared [pipeline.Runner] and keeps the resulting atlas in a
// [storage.Store] under a fresh id.
//
// # Routes
//
//	POST /v1/pack           pack sprites, store and return the record (201)
//	GET  /v1/atlases        list stored records, newest first (?limit=N)
//	GET  /v1/atlases/{id}   fetch one record
//	GET  /healthz           liveness
//	GET  /version           build information
//
// Errors are returned as {"error": {"code": ..., "message": ...}} with a
// status derived from the error code.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/sheetpack/pkg/observability"
	"github.com/matzehuels/sheetpack/pkg/pipeline"
	"github.com/matzehuels/sheetpack/pkg/storage"
)

const (
	// MaxBodyBytes bounds the size of a pack request.
	MaxBodyBytes = 8 << 20

	// DefaultListLimit is used when GET /v1/atlases has no limit.
	DefaultListLimit = 20

	// MaxListLimit caps the limit query parameter.
	MaxListLimit = 100

	shutdownTimeout = 10 * time.Second
)

// Server serves pack requests.
type Server struct {
	runner *pipeline.Runner
	store  storage.Store
	logger *log.Logger
	router chi.Router

	newID func() string
	now   func() time.Time
}

// New creates a server. The runner's cache is shared by all requests.
func New(runner *pipeline.Runner, store storage.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = runner.Logger
	}
	s := &Server{
		runner: runner,
		store:  store,
		logger: logger,
		newID:  uuid.NewString,
		now:    time.Now,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/pack", s.handlePack)
		r.Get("/atlases", s.handleListAtlases)
		r.Get("/atlases/{id}", s.handleGetAtlas)
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// observe logs each request and reports it to the server hooks. It reads the
// route pattern after the handler ran, once chi has matched it.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.Server()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, route, status, elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()))
	})
}
