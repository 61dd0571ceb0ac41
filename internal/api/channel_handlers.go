package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/havenapp/haven-server/internal/domain"
	"github.com/havenapp/haven-server/internal/service"
)

func (s *Server) registerChannelRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createChannel",
		Method:      http.MethodPost,
		Path:        "/api/v1/spaces/{spaceID}/channels",
		Summary:     "Create channel",
		Description: "Creates a text or voice channel in the space",
		Tags:        []string{"Channels"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateChannel)

	huma.Register(s.api, huma.Operation{
		OperationID: "listChannels",
		Method:      http.MethodGet,
		Path:        "/api/v1/spaces/{spaceID}/channels",
		Summary:     "List channels",
		Tags:        []string{"Channels"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListChannels)

	huma.Register(s.api, huma.Operation{
		OperationID: "getChannel",
		Method:      http.MethodGet,
		Path:        "/api/v1/channels/{channelID}",
		Summary:     "Get channel",
		Tags:        []string{"Channels"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetChannel)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteChannel",
		Method:      http.MethodDelete,
		Path:        "/api/v1/spaces/{spaceID}/channels/{channelID}",
		Summary:     "Delete channel",
		Description: "Deletes a channel. Owner or admin only; the cloud channel cannot be deleted.",
		Tags:        []string{"Channels"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteChannel)

	huma.Register(s.api, huma.Operation{
		OperationID: "setChannelAttr",
		Method:      http.MethodPut,
		Path:        "/api/v1/channels/{channelID}/attrs/{key}",
		Summary:     "Set channel attribute",
		Description: "Upserts a key/value attribute on the channel",
		Tags:        []string{"Channels"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetChannelAttr)

	huma.Register(s.api, huma.Operation{
		OperationID: "listChannelAttrs",
		Method:      http.MethodGet,
		Path:        "/api/v1/channels/{channelID}/attrs",
		Summary:     "List channel attributes",
		Tags:        []string{"Channels"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListChannelAttrs)
}

// === DTOs ===

// ChannelPathInput identifies a channel by path parameter.
type ChannelPathInput struct {
	ChannelID string `path:"channelID" doc:"Channel ID"`
}

// CreateChannelInput wraps the create-channel request for Huma.
type CreateChannelInput struct {
	SpaceID string `path:"spaceID" doc:"Space ID"`
	Body    struct {
		Name string `json:"name" doc:"Channel name"`
		Type string `json:"type" doc:"Channel type (text or voice)"`
	}
}

// ChannelSpacePathInput identifies a channel within a space.
type ChannelSpacePathInput struct {
	SpaceID   string `path:"spaceID" doc:"Space ID"`
	ChannelID string `path:"channelID" doc:"Channel ID"`
}

// SetChannelAttrInput wraps the attribute upsert request for Huma.
type SetChannelAttrInput struct {
	ChannelID string `path:"channelID" doc:"Channel ID"`
	Key       string `path:"key" doc:"Attribute key"`
	Body      struct {
		Value string `json:"value" doc:"Attribute value"`
	}
}

// ChannelOutput wraps a single channel for Huma.
type ChannelOutput struct {
	Body *domain.Channel
}

// ChannelListOutput wraps a channel list for Huma.
type ChannelListOutput struct {
	Body []*domain.Channel
}

// ChannelAttrOutput wraps a single channel attribute for Huma.
type ChannelAttrOutput struct {
	Body *domain.ChannelAttr
}

// ChannelAttrListOutput wraps a channel attribute list for Huma.
type ChannelAttrListOutput struct {
	Body []*domain.ChannelAttr
}

// === Handlers ===

func (s *Server) handleCreateChannel(ctx context.Context, input *CreateChannelInput) (*ChannelOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	channel, err := s.services.Channel.CreateChannel(ctx, userID, input.SpaceID, service.CreateChannelRequest{
		Name: input.Body.Name,
		Type: domain.ChannelType(input.Body.Type),
	})
	if err != nil {
		return nil, err
	}

	return &ChannelOutput{Body: channel}, nil
}

func (s *Server) handleListChannels(ctx context.Context, input *SpacePathInput) (*ChannelListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	channels, err := s.services.Channel.ListChannels(ctx, userID, input.SpaceID)
	if err != nil {
		return nil, err
	}

	return &ChannelListOutput{Body: channels}, nil
}

func (s *Server) handleGetChannel(ctx context.Context, input *ChannelPathInput) (*ChannelOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	channel, err := s.services.Channel.GetChannel(ctx, userID, input.ChannelID)
	if err != nil {
		return nil, err
	}

	return &ChannelOutput{Body: channel}, nil
}

func (s *Server) handleDeleteChannel(ctx context.Context, input *ChannelSpacePathInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Channel.DeleteChannel(ctx, userID, input.SpaceID, input.ChannelID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Channel deleted"}}, nil
}

func (s *Server) handleSetChannelAttr(ctx context.Context, input *SetChannelAttrInput) (*ChannelAttrOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	attr, err := s.services.Channel.SetChannelAttr(ctx, userID, input.ChannelID, input.Key, input.Body.Value)
	if err != nil {
		return nil, err
	}

	return &ChannelAttrOutput{Body: attr}, nil
}

func (s *Server) handleListChannelAttrs(ctx context.Context, input *ChannelPathInput) (*ChannelAttrListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	attrs, err := s.services.Channel.ListChannelAttrs(ctx, userID, input.ChannelID)
	if err != nil {
		return nil, err
	}

	return &ChannelAttrListOutput{Body: attrs}, nil
}
