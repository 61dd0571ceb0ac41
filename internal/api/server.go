// Package api provides the HTTP API server and handlers for the Haven application.
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

	"github.com/havenapp/haven-server/internal/service"
	"github.com/havenapp/haven-server/internal/sse"
	"github.com/havenapp/haven-server/internal/store/sqlite"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           *sqlite.Store
	services        *Services
	router          *chi.Mux
	api             huma.API
	sseHandler      *sse.Handler
	sseManager      *sse.Manager
	logger          *slog.Logger
	authRateLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(store *sqlite.Store, services *Services, sseHandler *sse.Handler, sseManager *sse.Manager, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Last-Event-ID"},
		MaxAge:         300,
	}))
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig("Haven API", service.Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:           store,
		services:        services,
		router:          router,
		api:             api,
		sseHandler:      sseHandler,
		sseManager:      sseManager,
		logger:          logger,
		authRateLimiter: NewRateLimiter(20, time.Minute, 10),
	}

	s.registerHealthRoutes()
	s.registerInstanceRoutes()
	s.registerAuthRoutes()
	s.registerUserRoutes()
	s.registerSpaceRoutes()
	s.registerInviteRoutes()
	s.registerChannelRoutes()
	s.registerMessageRoutes()
	s.registerVaultRoutes()
	s.registerFileRoutes()
	s.registerPresenceRoutes()

	// Streaming endpoints bypass huma: SSE and blob transfers need direct
	// access to the ResponseWriter.
	router.Get("/api/v1/events/stream", s.handleEventStream)
	router.Get("/api/v1/files/{fileID}/download", s.handleDownloadFile)
	router.Group(func(r chi.Router) {
		r.Use(RateLimitMiddleware(NewRateLimiter(60, time.Minute, 20), logger))
		r.Post("/api/v1/vaults/{vaultID}/files", s.handleUploadVaultFile)
		r.Post("/api/v1/spaces/{spaceID}/files", s.handleUploadSpaceFile)
	})

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleEventStream streams change events to an authenticated client.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserID(r.Context())
	if err != nil {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	s.sseHandler.ServeStream(w, r, userID)
}
