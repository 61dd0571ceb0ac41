package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/havenapp/haven-server/internal/domain"
	"github.com/havenapp/haven-server/internal/search"
	"github.com/havenapp/haven-server/internal/service"
)

func (s *Server) registerMessageRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "sendMessage",
		Method:      http.MethodPost,
		Path:        "/api/v1/channels/{channelID}/messages",
		Summary:     "Send message",
		Description: "Posts a message to a channel",
		Tags:        []string{"Messages"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSendMessage)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMessages",
		Method:      http.MethodGet,
		Path:        "/api/v1/channels/{channelID}/messages",
		Summary:     "List messages",
		Description: "Lists channel messages newest-first, paginated by timestamp",
		Tags:        []string{"Messages"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMessages)

	huma.Register(s.api, huma.Operation{
		OperationID: "editMessage",
		Method:      http.MethodPatch,
		Path:        "/api/v1/messages/{messageID}",
		Summary:     "Edit message",
		Description: "Edits a message's content. Authors can only edit their own messages.",
		Tags:        []string{"Messages"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleEditMessage)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteMessage",
		Method:      http.MethodDelete,
		Path:        "/api/v1/messages/{messageID}",
		Summary:     "Delete message",
		Description: "Deletes a message. Allowed for the author or a space owner/admin.",
		Tags:        []string{"Messages"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteMessage)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchMessages",
		Method:      http.MethodGet,
		Path:        "/api/v1/spaces/{spaceID}/messages/search",
		Summary:     "Search messages",
		Description: "Full-text search over the space's messages",
		Tags:        []string{"Messages"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearchMessages)
}

// === DTOs ===

// SendMessageInput wraps the send-message request for Huma.
type SendMessageInput struct {
	ChannelID string `path:"channelID" doc:"Channel ID"`
	Body      struct {
		Content   string `json:"content" doc:"Message content"`
		ReplyToID string `json:"reply_to_id,omitempty" doc:"Optional message being replied to"`
	}
}

// ListMessagesInput wraps message pagination parameters for Huma.
type ListMessagesInput struct {
	ChannelID string `path:"channelID" doc:"Channel ID"`
	Limit     int    `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Page size"`
	Before    string `query:"before" doc:"Return messages created before this RFC3339 timestamp"`
}

// EditMessageInput wraps the edit-message request for Huma.
type EditMessageInput struct {
	MessageID string `path:"messageID" doc:"Message ID"`
	Body      struct {
		Content string `json:"content" doc:"New message content"`
	}
}

// MessagePathInput identifies a message by path parameter.
type MessagePathInput struct {
	MessageID string `path:"messageID" doc:"Message ID"`
}

// SearchMessagesInput wraps search parameters for Huma.
type SearchMessagesInput struct {
	SpaceID   string `path:"spaceID" doc:"Space ID"`
	Query     string `query:"q" doc:"Search query"`
	ChannelID string `query:"channel_id" doc:"Optional channel scope"`
	AuthorID  string `query:"author_id" doc:"Optional author filter"`
	Limit     int    `query:"limit" default:"25" minimum:"1" maximum:"100" doc:"Page size"`
	Offset    int    `query:"offset" default:"0" minimum:"0" doc:"Result offset"`
	Highlight bool   `query:"highlight" doc:"Include match highlighting"`
}

// ChatMessageOutput wraps a single chat message for Huma.
type ChatMessageOutput struct {
	Body *domain.Message
}

// ChatMessageListOutput wraps a chat message list for Huma.
type ChatMessageListOutput struct {
	Body []*domain.Message
}

// SearchResultOutput wraps search results for Huma.
type SearchResultOutput struct {
	Body *search.SearchResult
}

// === Handlers ===

func (s *Server) handleSendMessage(ctx context.Context, input *SendMessageInput) (*ChatMessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	message, err := s.services.Message.SendMessage(ctx, userID, input.ChannelID, service.SendMessageRequest{
		Content:   input.Body.Content,
		ReplyToID: input.Body.ReplyToID,
	})
	if err != nil {
		return nil, err
	}

	return &ChatMessageOutput{Body: message}, nil
}

func (s *Server) handleListMessages(ctx context.Context, input *ListMessagesInput) (*ChatMessageListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	var before *time.Time
	if input.Before != "" {
		parsed, err := time.Parse(time.RFC3339, input.Before)
		if err != nil {
			return nil, huma.Error400BadRequest("before must be an RFC3339 timestamp")
		}
		before = &parsed
	}

	messages, err := s.services.Message.ListMessages(ctx, userID, input.ChannelID, input.Limit, before)
	if err != nil {
		return nil, err
	}

	return &ChatMessageListOutput{Body: messages}, nil
}

func (s *Server) handleEditMessage(ctx context.Context, input *EditMessageInput) (*ChatMessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	message, err := s.services.Message.EditMessage(ctx, userID, input.MessageID, input.Body.Content)
	if err != nil {
		return nil, err
	}

	return &ChatMessageOutput{Body: message}, nil
}

func (s *Server) handleDeleteMessage(ctx context.Context, input *MessagePathInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Message.DeleteMessage(ctx, userID, input.MessageID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Message deleted"}}, nil
}

func (s *Server) handleSearchMessages(ctx context.Context, input *SearchMessagesInput) (*SearchResultOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Message.SearchMessages(ctx, userID, search.SearchParams{
		Query:     input.Query,
		SpaceID:   input.SpaceID,
		ChannelID: input.ChannelID,
		AuthorID:  input.AuthorID,
		Limit:     input.Limit,
		Offset:    input.Offset,
		Highlight: input.Highlight,
	})
	if err != nil {
		return nil, err
	}

	return &SearchResultOutput{Body: result}, nil
}
