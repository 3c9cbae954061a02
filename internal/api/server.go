// Package api provides the HTTP API server and handlers for the Takeoff application.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/takeoffapp/takeoff-server/internal/sse"
	"github.com/takeoffapp/takeoff-server/internal/store/sqlite"
	"github.com/takeoffapp/takeoff-server/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store               *sqlite.Store
	services            *Services
	sseHandler          *sse.Handler
	sseManager          *sse.Manager
	router              *chi.Mux
	api                 huma.API
	logger              *slog.Logger
	validator           *validation.Validator
	mutationRateLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(store *sqlite.Store, services *Services, sseHandler *sse.Handler, sseManager *sse.Manager, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	humaConfig := huma.DefaultConfig("Takeoff API", "1.0.0")
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s := &Server{
		store:               store,
		services:            services,
		sseHandler:          sseHandler,
		sseManager:          sseManager,
		router:              router,
		logger:              logger,
		validator:           validation.New(),
		mutationRateLimiter: NewRateLimiter(300, time.Minute, 100),
	}

	s.setupMiddleware()

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Last-Event-ID"},
		MaxAge:         300,
	}))
	s.router.Use(RateLimitMiddleware(s.mutationRateLimiter, s.logger))
}

// setupRoutes registers all huma operations plus the raw SSE route.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerProjectRoutes()
	s.registerPlanRoutes()
	s.registerDeviceRoutes()
	s.registerLocationRoutes()
	s.registerStampRoutes()
	s.registerCountRoutes()
	s.registerHistoryRoutes()

	// SSE stays outside huma: the stream is long-lived and hand-written.
	s.router.Get("/api/v1/plans/{id}/events", s.handlePlanEvents)
}

// handlePlanEvents streams count and entity events for one plan.
func (s *Server) handlePlanEvents(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "id")
	s.sseHandler.Serve(w, r, planID)
}
