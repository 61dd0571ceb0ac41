package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/havenapp/haven-server/internal/domain"
)

func (s *Server) registerPresenceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "presenceHeartbeat",
		Method:      http.MethodPost,
		Path:        "/api/v1/presence/heartbeat",
		Summary:     "Presence heartbeat",
		Description: "Refreshes the caller's presence. Presence expires if no heartbeat arrives in time.",
		Tags:        []string{"Presence"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handlePresenceHeartbeat)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSpacePresence",
		Method:      http.MethodGet,
		Path:        "/api/v1/spaces/{spaceID}/presence",
		Summary:     "List space presence",
		Description: "Lists the presence of the space's members",
		Tags:        []string{"Presence"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListSpacePresence)

	huma.Register(s.api, huma.Operation{
		OperationID: "joinVoice",
		Method:      http.MethodPost,
		Path:        "/api/v1/channels/{channelID}/voice",
		Summary:     "Join voice channel",
		Tags:        []string{"Presence"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleJoinVoice)

	huma.Register(s.api, huma.Operation{
		OperationID: "leaveVoice",
		Method:      http.MethodDelete,
		Path:        "/api/v1/channels/{channelID}/voice",
		Summary:     "Leave voice channel",
		Tags:        []string{"Presence"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleLeaveVoice)

	huma.Register(s.api, huma.Operation{
		OperationID: "listVoice",
		Method:      http.MethodGet,
		Path:        "/api/v1/channels/{channelID}/voice",
		Summary:     "List voice occupants",
		Tags:        []string{"Presence"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListVoice)
}

// === DTOs ===

// HeartbeatInput wraps the heartbeat request for Huma.
type HeartbeatInput struct {
	Body struct {
		Status string `json:"status" doc:"Presence status (online, idle, busy)"`
	}
}

// PresenceOutput wraps a single presence record for Huma.
type PresenceOutput struct {
	Body *domain.Presence
}

// PresenceListOutput wraps a presence list for Huma.
type PresenceListOutput struct {
	Body []*domain.Presence
}

// VoicePresenceOutput wraps a single voice presence record for Huma.
type VoicePresenceOutput struct {
	Body *domain.VoicePresence
}

// VoicePresenceListOutput wraps a voice presence list for Huma.
type VoicePresenceListOutput struct {
	Body []*domain.VoicePresence
}

// === Handlers ===

func (s *Server) handlePresenceHeartbeat(ctx context.Context, input *HeartbeatInput) (*PresenceOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	presence, err := s.services.Presence.Heartbeat(ctx, userID, domain.PresenceStatus(input.Body.Status))
	if err != nil {
		return nil, err
	}

	return &PresenceOutput{Body: presence}, nil
}

func (s *Server) handleListSpacePresence(ctx context.Context, input *SpacePathInput) (*PresenceListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	presences, err := s.services.Presence.OnlineUsers(ctx, userID, input.SpaceID)
	if err != nil {
		return nil, err
	}

	return &PresenceListOutput{Body: presences}, nil
}

func (s *Server) handleJoinVoice(ctx context.Context, input *ChannelPathInput) (*VoicePresenceOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	vp, err := s.services.Presence.JoinVoice(ctx, userID, input.ChannelID)
	if err != nil {
		return nil, err
	}

	return &VoicePresenceOutput{Body: vp}, nil
}

func (s *Server) handleLeaveVoice(ctx context.Context, input *ChannelPathInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Presence.LeaveVoice(ctx, userID, input.ChannelID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Left voice channel"}}, nil
}

func (s *Server) handleListVoice(ctx context.Context, input *ChannelPathInput) (*VoicePresenceListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	occupants, err := s.services.Presence.ListVoice(ctx, userID, input.ChannelID)
	if err != nil {
		return nil, err
	}

	return &VoicePresenceListOutput{Body: occupants}, nil
}
