// Package di provides dependency injection configuration for the Haven server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/havenapp/haven-server/internal/auth"
	"github.com/havenapp/haven-server/internal/blob"
	"github.com/havenapp/haven-server/internal/config"
	"github.com/havenapp/haven-server/internal/di/providers"
	"github.com/havenapp/haven-server/internal/logger"
	"github.com/havenapp/haven-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideBlobStore)
	do.Provide(injector, providers.ProvidePresenceStore)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvidePermissionService)
	do.Provide(injector, providers.ProvideInstanceService)
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideSpaceService)
	do.Provide(injector, providers.ProvideInviteService)
	do.Provide(injector, providers.ProvideChannelService)
	do.Provide(injector, providers.ProvideMessageService)
	do.Provide(injector, providers.ProvideVaultService)
	do.Provide(injector, providers.ProvideFileService)
	do.Provide(injector, providers.ProvidePresenceService)

	// Workers
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*blob.Store](injector)
	_ = do.MustInvoke[*providers.PresenceStoreHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.PermissionService](injector)
	_ = do.MustInvoke[*service.InstanceService](injector)
	_ = do.MustInvoke[*service.SessionService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.SpaceService](injector)
	_ = do.MustInvoke[*service.InviteService](injector)
	_ = do.MustInvoke[*service.ChannelService](injector)
	_ = do.MustInvoke[*service.MessageService](injector)
	_ = do.MustInvoke[*service.VaultService](injector)
	_ = do.MustInvoke[*service.FileService](injector)
	_ = do.MustInvoke[*service.PresenceService](injector)

	// Workers
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	_ = do.MustInvoke[*providers.MDNSServiceHandle](injector)

	return nil
}
