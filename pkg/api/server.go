// Package api exposes the skill subsystem over HTTP. The layer is a thin
// request/response mapping: all behavior lives in the orchestrator, the
// metrics collector, and the memory store.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillet/pkg/logger"
	"github.com/jingkaihe/skillet/pkg/memory"
	"github.com/jingkaihe/skillet/pkg/metrics"
	"github.com/jingkaihe/skillet/pkg/orchestrator"
)

// Config holds server listen configuration.
type Config struct {
	Host string
	Port int
}

// Validate checks the listen configuration.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Server wires HTTP routes to the skill subsystem.
type Server struct {
	router    *mux.Router
	orch      *orchestrator.Orchestrator
	collector *metrics.Collector
	store     *memory.Store
	config    *Config
	http      *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithMemoryStore enables the memory endpoints.
func WithMemoryStore(store *memory.Store) ServerOption {
	return func(s *Server) {
		s.store = store
	}
}

// WithCollector enables the metrics endpoints.
func WithCollector(collector *metrics.Collector) ServerOption {
	return func(s *Server) {
		s.collector = collector
	}
}

// NewServer creates an API server over the orchestrator.
func NewServer(orch *orchestrator.Orchestrator, config *Config, opts ...ServerOption) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}

	s := &Server{
		router: mux.NewRouter(),
		orch:   orch,
		config: config,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/skills", s.handleListSkills).Methods("GET")
	api.HandleFunc("/skills", s.handleCreateSkill).Methods("POST")
	api.HandleFunc("/skills/route", s.handleRouteSkills).Methods("POST")
	api.HandleFunc("/skills/reload", s.handleReloadSkills).Methods("POST")
	api.HandleFunc("/skills/{id}", s.handleGetSkill).Methods("GET")

	if s.collector != nil {
		api.HandleFunc("/metrics", s.handleListMetrics).Methods("GET")
		api.HandleFunc("/metrics", s.handleClearMetrics).Methods("DELETE")
		api.HandleFunc("/metrics/stats", s.handleMetricsStats).Methods("GET")
		api.HandleFunc("/metrics/agents/{name}", s.handleAgentStats).Methods("GET")
	}

	if s.store != nil {
		api.HandleFunc("/memory/{session}/messages", s.handleAddMessage).Methods("POST")
		api.HandleFunc("/memory/{session}/messages", s.handleChatHistory).Methods("GET")
		api.HandleFunc("/memory/{session}/facts", s.handleGetFacts).Methods("GET")
		api.HandleFunc("/memory/{session}/facts", s.handlePutFacts).Methods("PUT")
		api.HandleFunc("/memory/{session}", s.handleClearSession).Methods("DELETE")
	}

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.Use(s.loggingMiddleware)
}

// Start runs the server until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.http = &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.G(ctx).WithField("addr", s.config.Addr()).Info("api server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		return errors.Wrap(err, "api server failed")
	}
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.G(r.Context()).WithField("method", r.Method).
			WithField("path", r.URL.Path).
			WithField("duration", time.Since(start).String()).
			Debug("handled request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
