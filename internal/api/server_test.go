package api

import (
	"context"
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/havenapp/haven-server/internal/auth"
	"github.com/havenapp/haven-server/internal/blob"
	"github.com/havenapp/haven-server/internal/config"
	"github.com/havenapp/haven-server/internal/presence"
	"github.com/havenapp/haven-server/internal/search"
	"github.com/havenapp/haven-server/internal/service"
	"github.com/havenapp/haven-server/internal/sse"
	"github.com/havenapp/haven-server/internal/store/sqlite"
)

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// testServer wraps the API server with a humatest client.
type testServer struct {
	*Server
	api          humatest.TestAPI
	tokenService *auth.TokenService
}

// newTestServer wires the full stack against temporary storage.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	st, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	blobs, err := blob.NewStore(tmpDir)
	require.NoError(t, err)

	presenceStore, err := presence.Open(filepath.Join(tmpDir, "presence"), time.Minute, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = presenceStore.Close() })

	searchIndex, err := search.NewSearchIndex(search.Options{
		DataPath: tmpDir,
		Logger:   logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = searchIndex.Close() })
	st.SetSearchIndexer(searchIndex)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Name:     "Test Server",
			LocalURL: "http://localhost:8080",
		},
		Auth: config.AuthConfig{
			AccessTokenDuration:  15 * time.Minute,
			RefreshTokenDuration: 720 * time.Hour,
		},
	}

	// 32 bytes as hex = 64 hex chars
	testKeyHex := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	tokenService, err := auth.NewTokenService(testKeyHex, cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
	require.NoError(t, err)

	sseManager := sse.NewManager(logger)
	sseHandler := sse.NewHandler(sseManager, logger)

	permissions := service.NewPermissionService(st)
	sessionService := service.NewSessionService(st, tokenService, logger)
	instanceService := service.NewInstanceService(st, logger, cfg)
	authService := service.NewAuthService(st, tokenService, sessionService, instanceService, logger)

	services := &Services{
		Instance: instanceService,
		Auth:     authService,
		Session:  sessionService,
		Space:    service.NewSpaceService(st, permissions, sseManager, logger),
		Invite:   service.NewInviteService(st, permissions, sseManager, logger),
		Channel:  service.NewChannelService(st, permissions, sseManager, logger),
		Message:  service.NewMessageService(st, permissions, searchIndex, logger),
		Vault:    service.NewVaultService(st, permissions, blobs, sseManager, logger),
		File:     service.NewFileService(st, permissions, blobs, sseManager, logger, MaxUploadSize),
		Presence: service.NewPresenceService(st, presenceStore, permissions, sseManager, logger),
	}

	router := chi.NewRouter()
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig("Haven API Test", "1.0.0")
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
		store:           st,
		services:        services,
		router:          router,
		api:             api,
		sseHandler:      sseHandler,
		sseManager:      sseManager,
		logger:          logger,
		authRateLimiter: NewRateLimiter(100, time.Minute, 50),
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

	router.Post("/api/v1/vaults/{vaultID}/files", s.handleUploadVaultFile)
	router.Post("/api/v1/spaces/{spaceID}/files", s.handleUploadSpaceFile)
	router.Get("/api/v1/files/{fileID}/download", s.handleDownloadFile)

	_, err = services.Instance.InitializeInstance(context.Background())
	require.NoError(t, err)

	return &testServer{
		Server:       s,
		api:          humatest.Wrap(t, api),
		tokenService: tokenService,
	}
}

// setupRoot runs initial setup and returns the root token and user ID.
func (ts *testServer) setupRoot(t *testing.T) (token string, userID string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/setup", map[string]any{
		"email":        "root@test.com",
		"password":     "TestPassword123!",
		"display_name": "Root",
	})
	require.Equal(t, http.StatusOK, resp.Code, "Setup failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	return envelope.Data.AccessToken, envelope.Data.User.ID
}

// registerAndLogin creates a regular user and returns their token and ID.
// Requires setup to have run first.
func (ts *testServer) registerAndLogin(t *testing.T, email string) (token string, userID string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        email,
		"password":     "TestPassword123!",
		"display_name": email,
	})
	require.Equal(t, http.StatusOK, resp.Code, "Register failed: %s", resp.Body.String())

	resp = ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    email,
		"password": "TestPassword123!",
	})
	require.Equal(t, http.StatusOK, resp.Code, "Login failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	return envelope.Data.AccessToken, envelope.Data.User.ID
}

// createSpaceViaAPI creates a space and returns its ID.
func (ts *testServer) createSpaceViaAPI(t *testing.T, token, name string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/spaces",
		"Authorization: Bearer "+token,
		map[string]any{"name": name},
	)
	require.Equal(t, http.StatusOK, resp.Code, "Create space failed: %s", resp.Body.String())

	var envelope testEnvelope[struct {
		ID string `json:"id"`
	}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data.ID
}
