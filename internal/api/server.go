// Package api is the HTTP boundary of the resolver service.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blockedby/resolver-os/internal/logger"
)

// Config holds server configuration.
type Config struct {
	Port    int
	APIKeys map[string]string
}

// Server is the HTTP server with routing and middleware.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	config     *Config
	handler    *Handler
	log        *logger.Logger
}

// NewServer creates the HTTP server around a resolve handler.
func NewServer(cfg *Config, handler *Handler) *Server {
	srv := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		handler: handler,
		log:     logger.Get(),
	}

	srv.setupMiddleware()
	srv.setupRoutes()

	return srv
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(s.requestLogger)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))
}

// requestLogger logs one line per request with the wrapped status code.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("api: request")
	})
}

func (s *Server) setupRoutes() {
	s.router.Group(func(r chi.Router) {
		r.Use(requireParams("api_key", "username"))
		r.Use(requireAPIKey(s.config.APIKeys))
		r.Get("/resolveUsername", s.handler.ResolveUsername)
	})

	s.router.Get("/", indexPage)
	s.router.Get("/api_doc", apiDocPage)

	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			_ = err // client disconnected
		}
	})

	s.router.Handle("/metrics", promhttp.Handler())
}

// Router exposes the mux, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Int("port", s.config.Port).Msg("api: listening")
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
