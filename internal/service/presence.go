package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/havenapp/haven-server/internal/domain"
	domainerrors "github.com/havenapp/haven-server/internal/errors"
	"github.com/havenapp/haven-server/internal/presence"
	"github.com/havenapp/haven-server/internal/sse"
	"github.com/havenapp/haven-server/internal/store"
	"github.com/havenapp/haven-server/internal/store/sqlite"
)

// PresenceService tracks user availability and voice-channel occupancy.
// Presence entries carry a TTL; a user whose heartbeats stop goes
// offline without an explicit disconnect.
type PresenceService struct {
	store       *sqlite.Store
	presence    *presence.Store
	permissions *PermissionService
	emitter     store.EventEmitter
	logger      *slog.Logger
}

// NewPresenceService creates a new presence service.
func NewPresenceService(
	store *sqlite.Store,
	presenceStore *presence.Store,
	permissions *PermissionService,
	emitter store.EventEmitter,
	logger *slog.Logger,
) *PresenceService {
	return &PresenceService{
		store:       store,
		presence:    presenceStore,
		permissions: permissions,
		emitter:     emitter,
		logger:      logger,
	}
}

// Heartbeat refreshes the user's presence entry. Clients call this on an
// interval shorter than the TTL to stay visible as online/idle/busy.
func (s *PresenceService) Heartbeat(ctx context.Context, userID string, status domain.PresenceStatus) (*domain.Presence, error) {
	if !domain.ValidPresenceStatus(status) {
		return nil, domainerrors.Validationf("unknown presence status %q", status)
	}

	prev, err := s.presence.GetPresence(userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get presence: %w", err)
	}

	p := &domain.Presence{
		UserID:   userID,
		Status:   status,
		LastSeen: time.Now(),
	}
	if err := s.presence.SetPresence(p); err != nil {
		return nil, fmt.Errorf("set presence: %w", err)
	}

	// Only announce transitions, not every heartbeat.
	if prev == nil || prev.Status != status {
		s.emitter.Emit(sse.NewPresenceChangedEvent(p))
	}

	return p, nil
}

// Disconnect clears the user's presence immediately and announces the
// offline transition. Called on logout.
func (s *PresenceService) Disconnect(ctx context.Context, userID string) error {
	if err := s.presence.ClearPresence(userID); err != nil {
		return fmt.Errorf("clear presence: %w", err)
	}

	s.emitter.Emit(sse.NewPresenceChangedEvent(&domain.Presence{
		UserID:   userID,
		Status:   domain.PresenceOffline,
		LastSeen: time.Now(),
	}))

	return nil
}

// GetPresence returns a user's current presence; users without a live
// entry are offline.
func (s *PresenceService) GetPresence(ctx context.Context, userID string) (*domain.Presence, error) {
	p, err := s.presence.GetPresence(userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &domain.Presence{UserID: userID, Status: domain.PresenceOffline}, nil
		}
		return nil, fmt.Errorf("get presence: %w", err)
	}
	return p, nil
}

// OnlineUsers returns the presences of a space's members that currently
// hold a live entry. Requires membership.
func (s *PresenceService) OnlineUsers(ctx context.Context, userID, spaceID string) ([]*domain.Presence, error) {
	if err := s.permissions.requireMember(ctx, spaceID, userID); err != nil {
		return nil, err
	}

	memberships, err := s.store.ListMemberships(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	members := make(map[string]bool, len(memberships))
	for _, m := range memberships {
		members[m.UserID] = true
	}

	all, err := s.presence.ListPresence()
	if err != nil {
		return nil, fmt.Errorf("list presence: %w", err)
	}

	var out []*domain.Presence
	for _, p := range all {
		if members[p.UserID] {
			out = append(out, p)
		}
	}
	return out, nil
}

// JoinVoice marks the user as present in a voice channel. Requires
// membership in the channel's space, and the channel must be type voice.
func (s *PresenceService) JoinVoice(ctx context.Context, userID, channelID string) (*domain.VoicePresence, error) {
	channel, err := s.voiceChannel(ctx, userID, channelID)
	if err != nil {
		return nil, err
	}

	vp := &domain.VoicePresence{
		ChannelID: channelID,
		UserID:    userID,
		JoinedAt:  time.Now(),
	}
	if err := s.presence.JoinVoice(vp); err != nil {
		return nil, fmt.Errorf("join voice: %w", err)
	}

	s.emitter.Emit(sse.NewVoiceJoinedEvent(channel.SpaceID, channelID, userID))

	return vp, nil
}

// LeaveVoice removes the user from a voice channel.
func (s *PresenceService) LeaveVoice(ctx context.Context, userID, channelID string) error {
	channel, err := s.voiceChannel(ctx, userID, channelID)
	if err != nil {
		return err
	}

	if err := s.presence.LeaveVoice(channelID, userID); err != nil {
		return fmt.Errorf("leave voice: %w", err)
	}

	s.emitter.Emit(sse.NewVoiceLeftEvent(channel.SpaceID, channelID, userID))

	return nil
}

// ListVoice returns the users currently in a voice channel. Requires
// membership in the channel's space.
func (s *PresenceService) ListVoice(ctx context.Context, userID, channelID string) ([]*domain.VoicePresence, error) {
	if _, err := s.voiceChannel(ctx, userID, channelID); err != nil {
		return nil, err
	}

	occupants, err := s.presence.ListVoice(channelID)
	if err != nil {
		return nil, fmt.Errorf("list voice: %w", err)
	}
	return occupants, nil
}

// voiceChannel loads a channel, verifies it is a voice channel, and
// checks the user's membership in its space.
func (s *PresenceService) voiceChannel(ctx context.Context, userID, channelID string) (*domain.Channel, error) {
	channel, err := s.store.GetChannel(ctx, channelID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("channel not found")
		}
		return nil, fmt.Errorf("get channel: %w", err)
	}
	if channel.Type != domain.ChannelVoice {
		return nil, domainerrors.Validation("not a voice channel")
	}
	if err := s.permissions.requireMember(ctx, channel.SpaceID, userID); err != nil {
		return nil, err
	}
	return channel, nil
}
