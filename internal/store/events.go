package store

import (
	"context"

	"github.com/havenapp/haven-server/internal/domain"
)

// EventEmitter is the interface for emitting SSE events.
// Store uses this to broadcast changes without depending on SSE implementation details.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// NewNoopEmitter creates a new no-op emitter for testing.
func NewNoopEmitter() EventEmitter {
	return NoopEmitter{}
}

// SearchIndexer is the interface for updating the message search index.
// Store uses this to keep search in sync without depending on search implementation.
type SearchIndexer interface {
	IndexMessage(ctx context.Context, spaceID string, msg *domain.Message) error
	DeleteMessage(ctx context.Context, messageID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexMessage is a no-op.
func (NoopSearchIndexer) IndexMessage(context.Context, string, *domain.Message) error { return nil }

// DeleteMessage is a no-op.
func (NoopSearchIndexer) DeleteMessage(context.Context, string) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer for testing.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}
