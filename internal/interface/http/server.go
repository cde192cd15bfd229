// Package http exposes the mentorship engine as a JSON REST API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mentorship-hub/mentorship-engine/internal/application/command"
	"github.com/mentorship-hub/mentorship-engine/internal/application/identity"
	"github.com/mentorship-hub/mentorship-engine/internal/application/query"
	"github.com/mentorship-hub/mentorship-engine/internal/interface/http/health"
	"github.com/mentorship-hub/mentorship-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration

	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes int64

	EnableCORS     bool
	AllowedOrigins []string

	// RateLimitPerMinute is the per-client request budget. Zero disables it.
	RateLimitPerMinute int

	Version string
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               8080,
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       15 * time.Second,
		IdleTimeout:        60 * time.Second,
		RequestTimeout:     10 * time.Second,
		MaxBodyBytes:       1 << 20,
		EnableCORS:         true,
		AllowedOrigins:     []string{"*"},
		RateLimitPerMinute: 120,
		Version:            "v1",
	}
}

// Address returns the listen address.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Dependencies are the application services the routes call into.
type Dependencies struct {
	Profiles *command.ProfileService
	Pairings *command.PairingRegistry
	Sessions *command.SessionLifecycle

	ProfileQueries *query.ProfileQueries
	Ranking        *query.RankMentorsHandler
	PairingQueries *query.PairingQueries
	SessionQueries *query.SessionQueries
	Dashboard      *query.DashboardHandler

	Resolver *identity.Resolver
	Health   health.Checker
	Logger   *logger.Logger
}

// Server is the REST API server.
type Server struct {
	config     Config
	deps       Dependencies
	router     chi.Router
	httpServer *http.Server
	logger     *logger.Logger
	limiter    *rateLimiter

	mu      sync.Mutex
	running bool
}

// NewServer builds the router and the underlying http.Server.
func NewServer(config Config, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = logger.Default()
	}
	if deps.Health == nil {
		deps.Health = health.NewComposite(config.Version, 0)
	}

	s := &Server{
		config: config,
		deps:   deps,
		router: chi.NewRouter(),
		logger: deps.Logger.With(logger.Component("http")),
	}
	if config.RateLimitPerMinute > 0 {
		s.limiter = newRateLimiter(config.RateLimitPerMinute, time.Minute)
	}

	s.mountMiddleware()
	s.mountRoutes()

	s.httpServer = &http.Server{
		Addr:         config.Address(),
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) mountMiddleware() {
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestContext)
	s.router.Use(s.requestLogger)
	s.router.Use(s.recoverer)
	if s.config.EnableCORS {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", headerAccountID, headerAccountRole, headerRequestID},
			ExposedHeaders:   []string{headerRequestID},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	if s.limiter != nil {
		s.router.Use(s.rateLimit)
	}
	if s.config.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.config.RequestTimeout))
	}
}

func (s *Server) mountRoutes() {
	r := s.router

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/matches", s.handleRankMentors)

		r.Route("/profiles", func(r chi.Router) {
			r.Post("/", s.handleCreateProfile)
			r.Get("/{id}", s.handleGetProfile)
			r.Put("/{id}", s.handleUpdateProfile)
			r.Delete("/{id}", s.handleDeleteProfile)
		})

		r.Route("/pairings", func(r chi.Router) {
			r.Get("/", s.handleListActivePairings)
			r.Post("/", s.handleCreatePairing)
			r.Post("/{id}/end", s.handleEndPairing)
			r.Get("/{id}/sessions", s.handleListSessions)
			r.Post("/{id}/sessions", s.handleRequestSession)
		})

		r.Get("/learners/{id}/pairing", s.handleLearnerPairing)
		r.Get("/learners/{id}/has-mentor", s.handleHasActiveMentor)
		r.Get("/mentors/{id}/pairings", s.handleMentorPairings)
		r.Get("/mentors/{id}/requests", s.handlePendingRequests)

		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Post("/confirm", s.handleConfirmSession)
			r.Post("/reject", s.handleRejectSession)
			r.Post("/complete", s.handleCompleteSession)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, r, http.StatusNotFound, "not_found", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", logger.String("address", s.config.Address()))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// StartAsync runs Start in a goroutine. The channel yields at most one error
// and is closed when the server stops.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
