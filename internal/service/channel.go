package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/havenapp/haven-server/internal/domain"
	domainerrors "github.com/havenapp/haven-server/internal/errors"
	"github.com/havenapp/haven-server/internal/id"
	"github.com/havenapp/haven-server/internal/sse"
	"github.com/havenapp/haven-server/internal/store"
	"github.com/havenapp/haven-server/internal/store/sqlite"
	"github.com/havenapp/haven-server/internal/util"
)

// ChannelService manages channel lifecycle within spaces.
type ChannelService struct {
	store       *sqlite.Store
	permissions *PermissionService
	emitter     store.EventEmitter
	logger      *slog.Logger
}

// NewChannelService creates a new channel service.
func NewChannelService(
	store *sqlite.Store,
	permissions *PermissionService,
	emitter store.EventEmitter,
	logger *slog.Logger,
) *ChannelService {
	return &ChannelService{
		store:       store,
		permissions: permissions,
		emitter:     emitter,
		logger:      logger,
	}
}

// CreateChannelRequest contains the data needed to create a channel.
type CreateChannelRequest struct {
	Name string             `json:"name" validate:"required,max=100"`
	Type domain.ChannelType `json:"type" validate:"required"`
}

// CreateChannel creates a text or voice channel in a space. Requires
// membership. The name is normalized (lowercase, spaces to hyphens); a
// name that is empty after normalization is rejected. Cloud channels are
// created only alongside their space, never by hand.
func (s *ChannelService) CreateChannel(ctx context.Context, userID, spaceID string, req CreateChannelRequest) (*domain.Channel, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}
	if err := s.permissions.requireMember(ctx, spaceID, userID); err != nil {
		return nil, err
	}

	if !domain.ValidChannelType(req.Type) {
		return nil, domainerrors.Validationf("unknown channel type %q", req.Type)
	}
	if req.Type == domain.ChannelCloud {
		return nil, domainerrors.Validation("cloud channels are created with their space")
	}

	name := util.NormalizeChannelName(req.Name)
	if name == "" {
		return nil, domainerrors.Validation("channel name is empty after normalization")
	}

	channel := &domain.Channel{
		ID:        id.MustGenerate("chn"),
		SpaceID:   spaceID,
		Name:      name,
		Type:      req.Type,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateChannel(ctx, channel); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflictf("channel %q already exists in this space", name)
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("space not found")
		}
		return nil, fmt.Errorf("create channel: %w", err)
	}

	s.emitter.Emit(sse.NewChannelCreatedEvent(channel))

	s.logger.Info("channel created",
		"space_id", spaceID,
		"channel_id", channel.ID,
		"type", channel.Type,
	)

	return channel, nil
}

// ListChannels returns a space's channels. Requires membership.
func (s *ChannelService) ListChannels(ctx context.Context, userID, spaceID string) ([]*domain.Channel, error) {
	if err := s.permissions.requireMember(ctx, spaceID, userID); err != nil {
		return nil, err
	}

	channels, err := s.store.ListChannels(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return channels, nil
}

// GetChannel returns a single channel. Requires membership in its space.
func (s *ChannelService) GetChannel(ctx context.Context, userID, channelID string) (*domain.Channel, error) {
	channel, err := s.store.GetChannel(ctx, channelID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("channel not found")
		}
		return nil, fmt.Errorf("get channel: %w", err)
	}
	if err := s.permissions.requireMember(ctx, channel.SpaceID, userID); err != nil {
		return nil, err
	}
	return channel, nil
}

// DeleteChannel removes a channel. Requires the owner or admin role, and
// the space's cloud channel can never be deleted.
func (s *ChannelService) DeleteChannel(ctx context.Context, userID, spaceID, channelID string) error {
	channel, err := s.store.GetChannel(ctx, channelID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("channel not found")
		}
		return fmt.Errorf("get channel: %w", err)
	}
	if channel.SpaceID != spaceID {
		return domainerrors.NotFound("channel not found")
	}

	if channel.IsCloud() {
		return domainerrors.Conflict("the cloud channel cannot be deleted")
	}
	ok, err := s.permissions.CanDeleteChannel(ctx, userID, channel)
	if err != nil {
		return err
	}
	if !ok {
		return domainerrors.Forbidden("deleting channels requires the owner or admin role")
	}

	// The store re-checks the cloud protection inside the DELETE.
	if err := s.store.DeleteChannel(ctx, channelID); err != nil {
		var storeErr *store.Error
		if errors.As(err, &storeErr) && storeErr.Code == http.StatusConflict {
			return domainerrors.Conflict("the cloud channel cannot be deleted")
		}
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("channel not found")
		}
		return fmt.Errorf("delete channel: %w", err)
	}

	s.emitter.Emit(sse.NewChannelDeletedEvent(spaceID, channelID, time.Now()))

	s.logger.Info("channel deleted",
		"space_id", spaceID,
		"channel_id", channelID,
		"user_id", userID,
	)

	return nil
}

// SetChannelAttr upserts a key/value attribute on a channel. Values are
// opaque JSON text. Requires the owner or admin role.
func (s *ChannelService) SetChannelAttr(ctx context.Context, userID, channelID, key, value string) (*domain.ChannelAttr, error) {
	if key == "" {
		return nil, domainerrors.Validation("attribute key cannot be empty")
	}

	channel, err := s.store.GetChannel(ctx, channelID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("channel not found")
		}
		return nil, fmt.Errorf("get channel: %w", err)
	}
	if err := s.permissions.requireOwnerOrAdmin(ctx, channel.SpaceID, userID); err != nil {
		return nil, err
	}

	attr := &domain.ChannelAttr{
		ChannelID: channelID,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	if err := s.store.SetChannelAttr(ctx, attr); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("channel not found")
		}
		return nil, fmt.Errorf("set channel attr: %w", err)
	}

	s.emitter.Emit(sse.NewChannelAttrUpdatedEvent(channel.SpaceID, attr))

	return attr, nil
}

// ListChannelAttrs returns a channel's attributes. Requires membership.
func (s *ChannelService) ListChannelAttrs(ctx context.Context, userID, channelID string) ([]*domain.ChannelAttr, error) {
	channel, err := s.store.GetChannel(ctx, channelID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("channel not found")
		}
		return nil, fmt.Errorf("get channel: %w", err)
	}
	if err := s.permissions.requireMember(ctx, channel.SpaceID, userID); err != nil {
		return nil, err
	}

	attrs, err := s.store.ListChannelAttrs(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("list channel attrs: %w", err)
	}
	return attrs, nil
}
