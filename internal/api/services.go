package api

import (
	"github.com/havenapp/haven-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Instance *service.InstanceService
	Auth     *service.AuthService
	Session  *service.SessionService
	Space    *service.SpaceService
	Invite   *service.InviteService
	Channel  *service.ChannelService
	Message  *service.MessageService
	Vault    *service.VaultService
	File     *service.FileService
	Presence *service.PresenceService
}
