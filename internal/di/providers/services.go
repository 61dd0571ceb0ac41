package providers

import (
	"github.com/samber/do/v2"

	"github.com/havenapp/haven-server/internal/auth"
	"github.com/havenapp/haven-server/internal/blob"
	"github.com/havenapp/haven-server/internal/config"
	"github.com/havenapp/haven-server/internal/logger"
	"github.com/havenapp/haven-server/internal/service"
)

// ProvidePermissionService provides the role and access evaluator.
func ProvidePermissionService(i do.Injector) (*service.PermissionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return service.NewPermissionService(storeHandle.Store), nil
}

// ProvideInstanceService provides the server instance service.
func ProvideInstanceService(i do.Injector) (*service.InstanceService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	cfg := do.MustInvoke[*config.Config](i)

	return service.NewInstanceService(storeHandle.Store, log.Logger, cfg), nil
}

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	instanceService := do.MustInvoke[*service.InstanceService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, sessionService, instanceService, log.Logger), nil
}

// ProvideSpaceService provides the space and membership service.
func ProvideSpaceService(i do.Injector) (*service.SpaceService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	permissions := do.MustInvoke[*service.PermissionService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSpaceService(storeHandle.Store, permissions, sseHandle.Manager, log.Logger), nil
}

// ProvideInviteService provides the invite service.
func ProvideInviteService(i do.Injector) (*service.InviteService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	permissions := do.MustInvoke[*service.PermissionService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewInviteService(storeHandle.Store, permissions, sseHandle.Manager, log.Logger), nil
}

// ProvideChannelService provides the channel service.
func ProvideChannelService(i do.Injector) (*service.ChannelService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	permissions := do.MustInvoke[*service.PermissionService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewChannelService(storeHandle.Store, permissions, sseHandle.Manager, log.Logger), nil
}

// ProvideMessageService provides the message service.
func ProvideMessageService(i do.Injector) (*service.MessageService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	permissions := do.MustInvoke[*service.PermissionService](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewMessageService(storeHandle.Store, permissions, searchHandle.SearchIndex, log.Logger), nil
}

// ProvideVaultService provides the vault service.
func ProvideVaultService(i do.Injector) (*service.VaultService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	permissions := do.MustInvoke[*service.PermissionService](i)
	blobs := do.MustInvoke[*blob.Store](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewVaultService(storeHandle.Store, permissions, blobs, sseHandle.Manager, log.Logger), nil
}

// ProvideFileService provides the file upload and download service.
func ProvideFileService(i do.Injector) (*service.FileService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	permissions := do.MustInvoke[*service.PermissionService](i)
	blobs := do.MustInvoke[*blob.Store](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewFileService(storeHandle.Store, permissions, blobs, sseHandle.Manager, log.Logger, cfg.Uploads.MaxFileSize), nil
}

// ProvidePresenceService provides the presence and voice channel service.
func ProvidePresenceService(i do.Injector) (*service.PresenceService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	presenceHandle := do.MustInvoke[*PresenceStoreHandle](i)
	permissions := do.MustInvoke[*service.PermissionService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPresenceService(storeHandle.Store, presenceHandle.Store, permissions, sseHandle.Manager, log.Logger), nil
}
