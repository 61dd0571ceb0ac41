package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/havenapp/haven-server/internal/domain"
	domainerrors "github.com/havenapp/haven-server/internal/errors"
	"github.com/havenapp/haven-server/internal/id"
	"github.com/havenapp/haven-server/internal/search"
	"github.com/havenapp/haven-server/internal/store"
	"github.com/havenapp/haven-server/internal/store/sqlite"
)

const (
	// maxMessageLength caps message content.
	maxMessageLength = 4000
	// defaultMessagePageSize is the page size when the caller gives none.
	defaultMessagePageSize = 50
	// maxMessagePageSize caps a single page of messages.
	maxMessagePageSize = 200
)

// MessageService manages channel messages and message search.
// The sqlite store emits change-feed events and keeps the search index
// in sync on every message write.
type MessageService struct {
	store       *sqlite.Store
	permissions *PermissionService
	search      *search.SearchIndex
	logger      *slog.Logger
}

// NewMessageService creates a new message service.
func NewMessageService(
	store *sqlite.Store,
	permissions *PermissionService,
	searchIndex *search.SearchIndex,
	logger *slog.Logger,
) *MessageService {
	return &MessageService{
		store:       store,
		permissions: permissions,
		search:      searchIndex,
		logger:      logger,
	}
}

// SendMessageRequest contains the data needed to post a message.
type SendMessageRequest struct {
	Content   string `json:"content" validate:"required"`
	ReplyToID string `json:"reply_to_id,omitempty"`
}

// SendMessage posts a message to a channel. The author must be a member
// of the channel's space. A reply reference must point at an existing
// message in the same channel.
func (s *MessageService) SendMessage(ctx context.Context, authorID, channelID string, req SendMessageRequest) (*domain.Message, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}
	if len(req.Content) > maxMessageLength {
		return nil, domainerrors.Validationf("message exceeds %d characters", maxMessageLength)
	}

	channel, err := s.store.GetChannel(ctx, channelID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("channel not found")
		}
		return nil, fmt.Errorf("get channel: %w", err)
	}
	if err := s.permissions.requireMember(ctx, channel.SpaceID, authorID); err != nil {
		return nil, err
	}

	if req.ReplyToID != "" {
		parent, err := s.store.GetMessage(ctx, req.ReplyToID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, domainerrors.NotFound("replied-to message not found")
			}
			return nil, fmt.Errorf("get parent message: %w", err)
		}
		if parent.ChannelID != channelID {
			return nil, domainerrors.Validation("reply must reference a message in the same channel")
		}
	}

	message := &domain.Message{
		ID:        id.MustGenerate("msg"),
		ChannelID: channelID,
		AuthorID:  authorID,
		Content:   req.Content,
		ReplyToID: req.ReplyToID,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	return message, nil
}

// ListMessages returns a page of a channel's messages, newest first.
// before, when set, returns only messages created strictly earlier.
func (s *MessageService) ListMessages(ctx context.Context, userID, channelID string, limit int, before *time.Time) ([]*domain.Message, error) {
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

	if limit <= 0 {
		limit = defaultMessagePageSize
	}
	if limit > maxMessagePageSize {
		limit = maxMessagePageSize
	}

	messages, err := s.store.ListMessages(ctx, channelID, limit, before)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// EditMessage replaces a message's content. Only the author may edit.
func (s *MessageService) EditMessage(ctx context.Context, userID, messageID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domainerrors.Validation("content cannot be empty")
	}
	if len(content) > maxMessageLength {
		return nil, domainerrors.Validationf("message exceeds %d characters", maxMessageLength)
	}

	message, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("message not found")
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	if message.AuthorID != userID {
		return nil, domainerrors.Forbidden("only the author can edit a message")
	}

	message.Content = content
	message.MarkEdited()
	if err := s.store.UpdateMessage(ctx, message); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("message not found")
		}
		return nil, fmt.Errorf("update message: %w", err)
	}

	return message, nil
}

// DeleteMessage removes a message. The author may delete their own;
// space owners and admins may delete any message in their space.
func (s *MessageService) DeleteMessage(ctx context.Context, userID, messageID string) error {
	message, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("message not found")
		}
		return fmt.Errorf("get message: %w", err)
	}

	if message.AuthorID != userID {
		channel, err := s.store.GetChannel(ctx, message.ChannelID)
		if err != nil {
			return fmt.Errorf("get channel: %w", err)
		}
		ok, err := s.permissions.IsOwnerOrAdmin(ctx, channel.SpaceID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return domainerrors.Forbidden("deleting another member's message requires the owner or admin role")
		}
	}

	if err := s.store.DeleteMessage(ctx, messageID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("message not found")
		}
		return fmt.Errorf("delete message: %w", err)
	}

	return nil
}

// SearchMessages runs a full-text query over a space's messages. The
// requester must be a member; results never cross spaces.
func (s *MessageService) SearchMessages(ctx context.Context, userID string, params search.SearchParams) (*search.SearchResult, error) {
	if strings.TrimSpace(params.Query) == "" {
		return nil, domainerrors.Validation("query cannot be empty")
	}
	if params.SpaceID == "" {
		return nil, domainerrors.Validation("space_id is required")
	}
	if err := s.permissions.requireMember(ctx, params.SpaceID, userID); err != nil {
		return nil, err
	}

	result, err := s.search.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	return result, nil
}
