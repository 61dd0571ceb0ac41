package domain

import "time"

// ChannelType classifies a channel within a space.
type ChannelType string

const (
	// ChannelText is a plain text chat channel.
	ChannelText ChannelType = "text"
	// ChannelVoice is a voice channel with live presence.
	ChannelVoice ChannelType = "voice"
	// ChannelCloud is the space's default collaboration channel.
	// Created automatically with the space, cannot be deleted.
	ChannelCloud ChannelType = "cloud"
)

// ValidChannelType reports whether t is one of the known channel types.
func ValidChannelType(t ChannelType) bool {
	switch t {
	case ChannelText, ChannelVoice, ChannelCloud:
		return true
	}
	return false
}

// Channel belongs to a space and carries its messages.
// Names are stored normalized (lowercase, hyphen-separated).
type Channel struct {
	ID        string      `json:"id"`
	SpaceID   string      `json:"space_id"`
	Name      string      `json:"name"`
	Type      ChannelType `json:"type"`
	CreatedAt time.Time   `json:"created_at"`
}

// IsCloud returns true for the space's default cloud channel.
func (c *Channel) IsCloud() bool {
	return c.Type == ChannelCloud
}

// ChannelAttr is an arbitrary key/value attribute attached to a channel.
// Values are opaque JSON text.
type ChannelAttr struct {
	ChannelID string    `json:"channel_id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
