package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"weather-dashboard/autocomplete"
	"weather-dashboard/dashboard"
)

// Pinger is implemented by backends that can report their health
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configure the API server
type Options struct {
	Port           int
	RateLimit      bool
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server represents the API server
type Server struct {
	session   *dashboard.Session
	suggester *autocomplete.Debouncer
	checks    map[string]Pinger
	logger    *slog.Logger
	router    *mux.Router
	server    *http.Server
}

// NewServer creates a new API server
func NewServer(session *dashboard.Session, suggester *autocomplete.Debouncer, logger *slog.Logger, opts Options) *Server {
	s := &Server{
		session:   session,
		suggester: suggester,
		checks:    make(map[string]Pinger),
		logger:    logger,
		router:    mux.NewRouter(),
	}

	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Lookups
	api.HandleFunc("/weather", s.handleLookupCity).Methods(http.MethodGet)
	api.HandleFunc("/weather/coords", s.handleLookupCoords).Methods(http.MethodGet)
	api.HandleFunc("/weather/here", s.handleLookupHere).Methods(http.MethodGet)
	api.HandleFunc("/weather/refresh", s.handleRefresh).Methods(http.MethodPost)
	api.HandleFunc("/weather/retry", s.handleRetry).Methods(http.MethodPost)
	api.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)

	// Autocomplete
	api.HandleFunc("/places", s.handlePlaces).Methods(http.MethodGet)

	// Preferences
	api.HandleFunc("/preferences/unit", s.handleGetUnit).Methods(http.MethodGet)
	api.HandleFunc("/preferences/unit", s.handleSetUnit).Methods(http.MethodPut)
	api.HandleFunc("/recent", s.handleRecent).Methods(http.MethodGet)
	api.HandleFunc("/recent", s.handleClearRecent).Methods(http.MethodDelete)

	// Health check
	api.HandleFunc("/health", s.handleHealthCheck).Methods(http.MethodGet)

	// mux consults the innermost router that matched, so both levels need these
	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, http.StatusNotFound, "not_found", "No such endpoint")
	})
	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})
	s.router.NotFoundHandler = notFound
	s.router.MethodNotAllowedHandler = methodNotAllowed
	api.NotFoundHandler = notFound
	api.MethodNotAllowedHandler = methodNotAllowed

	s.router.Use(requestIDMiddleware)
	s.router.Use(loggingMiddleware(logger))
	s.router.Use(contentTypeMiddleware)
	if opts.RateLimit && opts.RateLimitRPS > 0 {
		s.router.Use(rateLimitMiddleware(opts.RateLimitRPS, opts.RateLimitBurst))
	}

	port := opts.Port
	if port == 0 {
		port = 8080
	}
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// AddHealthCheck reports the named backend in /health
func (s *Server) AddHealthCheck(name string, p Pinger) {
	s.checks[name] = p
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins the API server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("Starting API server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for active ones to finish
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
