package domain

import "time"

// Message belongs to a channel and is authored by a space member.
type Message struct {
	ID        string     `json:"id"`
	ChannelID string     `json:"channel_id"`
	AuthorID  string     `json:"author_id"`
	Content   string     `json:"content"`
	ReplyToID string     `json:"reply_to_id,omitempty"` // Optional reference to a prior message
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
}

// IsReply returns true if the message references a prior message.
func (m *Message) IsReply() bool {
	return m.ReplyToID != ""
}

// MarkEdited stamps the message as edited now.
func (m *Message) MarkEdited() {
	now := time.Now()
	m.EditedAt = &now
}
