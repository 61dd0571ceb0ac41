// Package sse implements Server-Sent Events for real-time space updates and event broadcasting.
package sse

import (
	"time"

	"github.com/havenapp/haven-server/internal/domain"
)

// Haven uses SSE for server-to-client change notification only.
// Client actions always go through the request/response API; voice
// signaling may move to WebSockets later if SSE turns out too limited.

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventSpaceCreated represents a space creation event.
	EventSpaceCreated EventType = "space.created"
	// EventSpaceUpdated represents a space update event.
	EventSpaceUpdated EventType = "space.updated"
	// EventSpaceDeleted represents a space deletion event.
	EventSpaceDeleted EventType = "space.deleted"

	// EventMemberAdded represents a member joining a space.
	EventMemberAdded EventType = "member.added"
	// EventMemberRemoved represents a member leaving or being removed from a space.
	EventMemberRemoved EventType = "member.removed"

	// EventChannelCreated represents a channel creation event.
	EventChannelCreated EventType = "channel.created"
	// EventChannelDeleted represents a channel deletion event.
	EventChannelDeleted EventType = "channel.deleted"
	// EventChannelAttrUpdated represents a channel attribute change.
	EventChannelAttrUpdated EventType = "channel.attr_updated"

	// EventMessageCreated represents a message creation event.
	EventMessageCreated EventType = "message.created"
	// EventMessageUpdated represents a message edit event.
	EventMessageUpdated EventType = "message.updated"
	// EventMessageDeleted represents a message deletion event.
	EventMessageDeleted EventType = "message.deleted"

	// EventInviteCreated represents an invite creation event.
	// Only sent to owners and admins of the space.
	EventInviteCreated EventType = "invite.created"

	// EventPresenceChanged represents a user presence status change.
	EventPresenceChanged EventType = "presence.changed"
	// EventVoiceJoined represents a user joining a voice channel.
	EventVoiceJoined EventType = "voice.joined"
	// EventVoiceLeft represents a user leaving a voice channel.
	EventVoiceLeft EventType = "voice.left"

	// EventFileUploaded represents a completed file upload.
	EventFileUploaded EventType = "file.uploaded"
	// EventFileDeleted represents a file deletion event.
	EventFileDeleted EventType = "file.deleted"

	// EventVaultLinked represents a vault being linked into a space.
	EventVaultLinked EventType = "vault.linked"
	// EventVaultShared represents a vault being shared with a user.
	EventVaultShared EventType = "vault.shared"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"` // Event-specific data as JSON object
	Type      EventType `json:"type"`

	// Filtering fields for multi-space delivery.
	// When set, events are only delivered to clients matching these criteria.
	// Empty string means "broadcast to all".
	UserID  string `json:"-"` // Filter to specific user (not sent to client)
	SpaceID string `json:"-"` // Filter to members of specific space (not sent to client)
}

// SpaceEventData is the data payload for space events.
type SpaceEventData struct {
	Space *domain.Space `json:"space"`
}

// SpaceDeletedEventData is the data payload for space delete events.
type SpaceDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	SpaceID   string    `json:"space_id"`
}

// MemberEventData is the data payload for member add/remove events.
type MemberEventData struct {
	SpaceID string `json:"space_id"`
	UserID  string `json:"user_id"`
	Role    string `json:"role,omitempty"`
}

// ChannelEventData is the data payload for channel events.
type ChannelEventData struct {
	Channel *domain.Channel `json:"channel"`
}

// ChannelDeletedEventData is the data payload for channel delete events.
type ChannelDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	SpaceID   string    `json:"space_id"`
	ChannelID string    `json:"channel_id"`
}

// ChannelAttrEventData is the data payload for channel attribute events.
type ChannelAttrEventData struct {
	ChannelID string `json:"channel_id"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

// MessageEventData is the data payload for message create/update events.
type MessageEventData struct {
	Message *domain.Message `json:"message"`
}

// MessageDeletedEventData is the data payload for message delete events.
type MessageDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	ChannelID string    `json:"channel_id"`
	MessageID string    `json:"message_id"`
}

// InviteEventData is the data payload for invite events.
type InviteEventData struct {
	Invite *domain.Invite `json:"invite"`
}

// PresenceEventData is the data payload for presence change events.
type PresenceEventData struct {
	UserID   string    `json:"user_id"`
	Status   string    `json:"status"`
	LastSeen time.Time `json:"last_seen"`
}

// VoiceEventData is the data payload for voice join/leave events.
type VoiceEventData struct {
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
}

// FileEventData is the data payload for file events.
type FileEventData struct {
	File *domain.File `json:"file"`
}

// FileDeletedEventData is the data payload for file delete events.
type FileDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	FileID    string    `json:"file_id"`
}

// VaultLinkEventData is the data payload for vault link events.
type VaultLinkEventData struct {
	VaultID string   `json:"vault_id"`
	SpaceID string   `json:"space_id"`
	Perms   []string `json:"perms"`
}

// VaultShareEventData is the data payload for vault share events.
type VaultShareEventData struct {
	VaultID   string   `json:"vault_id"`
	GranteeID string   `json:"grantee_id"`
	Perms     []string `json:"perms"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewSpaceCreatedEvent creates a space.created event.
func NewSpaceCreatedEvent(space *domain.Space) Event {
	return Event{
		Type:      EventSpaceCreated,
		Data:      SpaceEventData{Space: space},
		Timestamp: time.Now(),
		SpaceID:   space.ID,
	}
}

// NewSpaceUpdatedEvent creates a space.updated event.
func NewSpaceUpdatedEvent(space *domain.Space) Event {
	return Event{
		Type:      EventSpaceUpdated,
		Data:      SpaceEventData{Space: space},
		Timestamp: time.Now(),
		SpaceID:   space.ID,
	}
}

// NewSpaceDeletedEvent creates a space.deleted event.
func NewSpaceDeletedEvent(spaceID string, deletedAt time.Time) Event {
	return Event{
		Type: EventSpaceDeleted,
		Data: SpaceDeletedEventData{
			SpaceID:   spaceID,
			DeletedAt: deletedAt,
		},
		Timestamp: time.Now(),
		SpaceID:   spaceID,
	}
}

// NewMemberAddedEvent creates a member.added event.
func NewMemberAddedEvent(membership *domain.Membership) Event {
	return Event{
		Type: EventMemberAdded,
		Data: MemberEventData{
			SpaceID: membership.SpaceID,
			UserID:  membership.UserID,
			Role:    string(membership.Role),
		},
		Timestamp: time.Now(),
		SpaceID:   membership.SpaceID,
	}
}

// NewMemberRemovedEvent creates a member.removed event.
func NewMemberRemovedEvent(spaceID, userID string) Event {
	return Event{
		Type: EventMemberRemoved,
		Data: MemberEventData{
			SpaceID: spaceID,
			UserID:  userID,
		},
		Timestamp: time.Now(),
		SpaceID:   spaceID,
	}
}

// NewChannelCreatedEvent creates a channel.created event.
func NewChannelCreatedEvent(channel *domain.Channel) Event {
	return Event{
		Type:      EventChannelCreated,
		Data:      ChannelEventData{Channel: channel},
		Timestamp: time.Now(),
		SpaceID:   channel.SpaceID,
	}
}

// NewChannelDeletedEvent creates a channel.deleted event.
func NewChannelDeletedEvent(spaceID, channelID string, deletedAt time.Time) Event {
	return Event{
		Type: EventChannelDeleted,
		Data: ChannelDeletedEventData{
			SpaceID:   spaceID,
			ChannelID: channelID,
			DeletedAt: deletedAt,
		},
		Timestamp: time.Now(),
		SpaceID:   spaceID,
	}
}

// NewChannelAttrUpdatedEvent creates a channel.attr_updated event.
func NewChannelAttrUpdatedEvent(spaceID string, attr *domain.ChannelAttr) Event {
	return Event{
		Type: EventChannelAttrUpdated,
		Data: ChannelAttrEventData{
			ChannelID: attr.ChannelID,
			Key:       attr.Key,
			Value:     attr.Value,
		},
		Timestamp: time.Now(),
		SpaceID:   spaceID,
	}
}

// NewMessageCreatedEvent creates a message.created event.
func NewMessageCreatedEvent(spaceID string, message *domain.Message) Event {
	return Event{
		Type:      EventMessageCreated,
		Data:      MessageEventData{Message: message},
		Timestamp: time.Now(),
		SpaceID:   spaceID,
	}
}

// NewMessageUpdatedEvent creates a message.updated event.
func NewMessageUpdatedEvent(spaceID string, message *domain.Message) Event {
	return Event{
		Type:      EventMessageUpdated,
		Data:      MessageEventData{Message: message},
		Timestamp: time.Now(),
		SpaceID:   spaceID,
	}
}

// NewMessageDeletedEvent creates a message.deleted event.
func NewMessageDeletedEvent(spaceID, channelID, messageID string, deletedAt time.Time) Event {
	return Event{
		Type: EventMessageDeleted,
		Data: MessageDeletedEventData{
			ChannelID: channelID,
			MessageID: messageID,
			DeletedAt: deletedAt,
		},
		Timestamp: time.Now(),
		SpaceID:   spaceID,
	}
}

// NewInviteCreatedEvent creates an invite.created event for space admins.
func NewInviteCreatedEvent(invite *domain.Invite) Event {
	return Event{
		Type:      EventInviteCreated,
		Data:      InviteEventData{Invite: invite},
		Timestamp: time.Now(),
		SpaceID:   invite.SpaceID,
	}
}

// NewPresenceChangedEvent creates a presence.changed event.
func NewPresenceChangedEvent(presence *domain.Presence) Event {
	return Event{
		Type: EventPresenceChanged,
		Data: PresenceEventData{
			UserID:   presence.UserID,
			Status:   string(presence.Status),
			LastSeen: presence.LastSeen,
		},
		Timestamp: time.Now(),
	}
}

// NewVoiceJoinedEvent creates a voice.joined event.
func NewVoiceJoinedEvent(spaceID, channelID, userID string) Event {
	return Event{
		Type: EventVoiceJoined,
		Data: VoiceEventData{
			ChannelID: channelID,
			UserID:    userID,
		},
		Timestamp: time.Now(),
		SpaceID:   spaceID,
	}
}

// NewVoiceLeftEvent creates a voice.left event.
func NewVoiceLeftEvent(spaceID, channelID, userID string) Event {
	return Event{
		Type: EventVoiceLeft,
		Data: VoiceEventData{
			ChannelID: channelID,
			UserID:    userID,
		},
		Timestamp: time.Now(),
		SpaceID:   spaceID,
	}
}

// NewFileUploadedEvent creates a file.uploaded event.
func NewFileUploadedEvent(spaceID string, file *domain.File) Event {
	return Event{
		Type:      EventFileUploaded,
		Data:      FileEventData{File: file},
		Timestamp: time.Now(),
		SpaceID:   spaceID,
	}
}

// NewFileDeletedEvent creates a file.deleted event.
func NewFileDeletedEvent(spaceID, fileID string, deletedAt time.Time) Event {
	return Event{
		Type: EventFileDeleted,
		Data: FileDeletedEventData{
			FileID:    fileID,
			DeletedAt: deletedAt,
		},
		Timestamp: time.Now(),
		SpaceID:   spaceID,
	}
}

// NewVaultLinkedEvent creates a vault.linked event.
func NewVaultLinkedEvent(link *domain.VaultLink) Event {
	return Event{
		Type: EventVaultLinked,
		Data: VaultLinkEventData{
			VaultID: link.VaultID,
			SpaceID: link.SpaceID,
			Perms:   link.Perms.Strings(),
		},
		Timestamp: time.Now(),
		SpaceID:   link.SpaceID,
	}
}

// NewVaultSharedEvent creates a vault.shared event delivered to the grantee.
func NewVaultSharedEvent(share *domain.VaultShare) Event {
	return Event{
		Type: EventVaultShared,
		Data: VaultShareEventData{
			VaultID:   share.VaultID,
			GranteeID: share.GranteeID,
			Perms:     share.Perms.Strings(),
		},
		Timestamp: time.Now(),
		UserID:    share.GranteeID,
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}
