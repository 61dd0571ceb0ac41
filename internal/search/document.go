// Package search provides full-text message search using Bleve.
// Messages are indexed as they are written and can be searched per
// space or per channel with match highlighting.
package search

import (
	"github.com/havenapp/haven-server/internal/domain"
)

// MessageDocument is the document structure for the Bleve index.
//
// Space and channel IDs are denormalized into every document so that
// scoping a search never needs a database lookup.
type MessageDocument struct {
	ID        string `json:"id"`
	SpaceID   string `json:"space_id"`
	ChannelID string `json:"channel_id"`
	AuthorID  string `json:"author_id"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"` // Unix millis
}

// NewMessageDocument builds an index document from a message.
func NewMessageDocument(spaceID string, m *domain.Message) *MessageDocument {
	return &MessageDocument{
		ID:        m.ID,
		SpaceID:   spaceID,
		ChannelID: m.ChannelID,
		AuthorID:  m.AuthorID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt.UnixMilli(),
	}
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *MessageDocument) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"id":         d.ID,
		"space_id":   d.SpaceID,
		"channel_id": d.ChannelID,
		"author_id":  d.AuthorID,
		"content":    d.Content,
		"created_at": d.CreatedAt,
	}
}
