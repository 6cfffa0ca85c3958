// Package server provides the HTTP transport for the MCP skill server. It
// decodes JSON request bodies, hands them to the dispatcher, and encodes the
// response envelope; a separate health endpoint reports catalog size.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/novaflow/sciskills/pkg/logger"
	"github.com/novaflow/sciskills/pkg/mcp"
	"github.com/novaflow/sciskills/pkg/presenter"
	"github.com/novaflow/sciskills/pkg/skills"
	"github.com/novaflow/sciskills/pkg/version"
)

// Config holds the configuration for the HTTP server
type Config struct {
	Host string
	Port int
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}

	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	return nil
}

// Server serves the MCP endpoint and the health check
type Server struct {
	router     *mux.Router
	registry   *skills.Registry
	dispatcher *mcp.Dispatcher
	config     *Config
	server     *http.Server
}

// HealthResponse is the payload of GET /health
type HealthResponse struct {
	Status     string `json:"status"`
	ToolsCount int    `json:"tools_count"`
	Server     string `json:"server"`
	Version    string `json:"version"`
}

// New creates a server around the given registry.
func New(config *Config, registry *skills.Registry) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}

	s := &Server{
		router:     mux.NewRouter(),
		registry:   registry,
		dispatcher: mcp.NewDispatcher(registry),
		config:     config,
	}

	s.setupRoutes()

	return s, nil
}

// setupRoutes configures all the HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/mcp", s.handleMCP).Methods("POST")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// handleMCP handles POST /mcp. A body that is not valid JSON is a transport
// error (400); everything past decoding is answered inside the protocol
// envelope with status 200.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req mcp.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.G(ctx).WithError(err).Warn("Failed to decode MCP request body")
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	resp := s.dispatcher.Dispatch(ctx, &req)
	s.writeJSONResponse(w, resp)
}

// handleHealth handles GET /health. The endpoint stays healthy even when the
// catalog is empty; a missing skills directory is a degraded catalog, not a
// broken server.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, HealthResponse{
		Status:     "healthy",
		ToolsCount: s.registry.Count(r.Context()),
		Server:     mcp.ServerName,
		Version:    version.Get().Version,
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: 200}

		next.ServeHTTP(rw, r)

		logger.G(r.Context()).WithFields(map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration":    time.Since(start),
			"remote_addr": r.RemoteAddr,
		}).Info("HTTP request")
	})
}

// corsMiddleware adds CORS headers; the backend calling this server lives on
// another origin.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// writeJSONResponse writes a JSON response
func (s *Server) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode JSON response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// Start loads the catalog eagerly, starts serving, and blocks until the
// context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.registry.Load(ctx)
	logger.G(ctx).WithField("tools_count", s.registry.Count(ctx)).Info("Skill server ready")

	address := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:    address,
		Handler: s.router,
	}

	presenter.Info(fmt.Sprintf("Starting MCP server on http://%s", address))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.G(ctx).WithError(err).Error("MCP server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}
