package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/havenapp/haven-server/internal/domain"
	"github.com/havenapp/haven-server/internal/sse"
	"github.com/havenapp/haven-server/internal/store"
)

// messageColumns is the ordered list of columns selected in message queries.
// Must match the scan order in scanMessage.
const messageColumns = `id, channel_id, author_id, content, reply_to_id, created_at, edited_at`

// scanMessage scans a sql.Row (or sql.Rows via its Scan method) into a domain.Message.
func scanMessage(scanner interface{ Scan(dest ...any) error }) (*domain.Message, error) {
	var m domain.Message

	var replyToID sql.NullString
	var createdAt string
	var editedAt sql.NullString

	err := scanner.Scan(
		&m.ID,
		&m.ChannelID,
		&m.AuthorID,
		&m.Content,
		&replyToID,
		&createdAt,
		&editedAt,
	)
	if err != nil {
		return nil, err
	}

	m.ReplyToID = replyToID.String
	m.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	m.EditedAt, err = parseNullableTime(editedAt)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// channelSpaceID resolves the space a channel belongs to.
func (s *Store) channelSpaceID(ctx context.Context, channelID string) (string, error) {
	var spaceID string
	err := s.db.QueryRowContext(ctx,
		`SELECT space_id FROM channels WHERE id = ?`, channelID).Scan(&spaceID)
	if err == sql.ErrNoRows {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return spaceID, nil
}

// CreateMessage inserts a new message, broadcasts it on the event feed,
// and adds it to the search index. Indexing failures are logged, not
// returned; the index can be rebuilt from the database.
func (s *Store) CreateMessage(ctx context.Context, message *domain.Message) error {
	spaceID, err := s.channelSpaceID(ctx, message.ChannelID)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (id, channel_id, author_id, content, reply_to_id, created_at, edited_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		message.ID,
		message.ChannelID,
		message.AuthorID,
		message.Content,
		nullString(message.ReplyToID),
		formatTime(message.CreatedAt),
		nullTimeString(message.EditedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return store.ErrNotFound
		}
		return err
	}

	s.emitter.Emit(sse.NewMessageCreatedEvent(spaceID, message))

	if err := s.searchIndexer.IndexMessage(ctx, spaceID, message); err != nil {
		s.logger.Warn("failed to index message", "message_id", message.ID, "error", err)
	}

	return nil
}

// GetMessage retrieves a message by ID.
// Returns store.ErrNotFound if the message does not exist.
func (s *Store) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)

	m, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListMessages returns up to limit messages of a channel, newest first.
// When before is non-nil only messages created strictly earlier are
// returned, which gives keyset pagination for history scrollback.
func (s *Store) ListMessages(ctx context.Context, channelID string, limit int, before *time.Time) ([]*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE channel_id = ?`
	args := []any{channelID}

	if before != nil {
		query += ` AND created_at < ?`
		args = append(args, formatTime(*before))
	}

	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

// UpdateMessage saves an edited message, broadcasts the edit, and
// refreshes the search index.
func (s *Store) UpdateMessage(ctx context.Context, message *domain.Message) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE messages SET content = ?, edited_at = ? WHERE id = ?`,
		message.Content,
		nullTimeString(message.EditedAt),
		message.ID,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}

	spaceID, err := s.channelSpaceID(ctx, message.ChannelID)
	if err != nil {
		return err
	}

	s.emitter.Emit(sse.NewMessageUpdatedEvent(spaceID, message))

	if err := s.searchIndexer.IndexMessage(ctx, spaceID, message); err != nil {
		s.logger.Warn("failed to reindex message", "message_id", message.ID, "error", err)
	}

	return nil
}

// DeleteMessage removes a message, broadcasts the deletion, and drops it
// from the search index.
func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	var channelID string
	err := s.db.QueryRowContext(ctx,
		`SELECT channel_id FROM messages WHERE id = ?`, id).Scan(&channelID)
	if err == sql.ErrNoRows {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}

	spaceID, err := s.channelSpaceID(ctx, channelID)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id); err != nil {
		return err
	}

	s.emitter.Emit(sse.NewMessageDeletedEvent(spaceID, channelID, id, time.Now()))

	if err := s.searchIndexer.DeleteMessage(ctx, id); err != nil {
		s.logger.Warn("failed to remove message from index", "message_id", id, "error", err)
	}

	return nil
}

// CountMessages returns the number of messages in a channel.
func (s *Store) CountMessages(ctx context.Context, channelID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE channel_id = ?`, channelID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
