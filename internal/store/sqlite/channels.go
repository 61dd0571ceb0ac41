package sqlite

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"github.com/havenapp/haven-server/internal/domain"
	"github.com/havenapp/haven-server/internal/store"
)

// channelColumns is the ordered list of columns selected in channel queries.
// Must match the scan order in scanChannel.
const channelColumns = `id, space_id, name, type, created_at`

// scanChannel scans a sql.Row (or sql.Rows via its Scan method) into a domain.Channel.
func scanChannel(scanner interface{ Scan(dest ...any) error }) (*domain.Channel, error) {
	var c domain.Channel

	var chType, createdAt string

	err := scanner.Scan(
		&c.ID,
		&c.SpaceID,
		&c.Name,
		&chType,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	c.Type = domain.ChannelType(chType)
	c.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// CreateChannel inserts a new channel into the database.
// Returns store.ErrAlreadyExists if the channel ID or (space, name) pair
// already exists.
func (s *Store) CreateChannel(ctx context.Context, channel *domain.Channel) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO channels (id, space_id, name, type, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		channel.ID,
		channel.SpaceID,
		channel.Name,
		string(channel.Type),
		formatTime(channel.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetChannel retrieves a channel by ID.
// Returns store.ErrNotFound if the channel does not exist.
func (s *Store) GetChannel(ctx context.Context, id string) (*domain.Channel, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE id = ?`, id)

	c, err := scanChannel(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListChannels returns all channels of a space ordered by creation time.
func (s *Store) ListChannels(ctx context.Context, spaceID string) ([]*domain.Channel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE space_id = ? ORDER BY created_at ASC`,
		spaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []*domain.Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return channels, nil
}

// GetCloudChannel returns the space's default cloud channel.
// Returns store.ErrNotFound if the space has none.
func (s *Store) GetCloudChannel(ctx context.Context, spaceID string) (*domain.Channel, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE space_id = ? AND type = 'cloud'`, spaceID)

	c, err := scanChannel(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteChannel removes a channel row. The cloud channel is protected at
// this layer too; deleting it returns a conflict error even if a caller
// slipped past the service checks.
func (s *Store) DeleteChannel(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM channels WHERE id = ? AND type <> 'cloud'`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var one int
		err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM channels WHERE id = ?`, id).Scan(&one)
		if err == sql.ErrNoRows {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		return &store.Error{Code: http.StatusConflict, Message: "cloud channel cannot be deleted"}
	}
	return nil
}

// SetChannelAttr upserts a key/value attribute on a channel.
func (s *Store) SetChannelAttr(ctx context.Context, attr *domain.ChannelAttr) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO channel_attrs (channel_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (channel_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		attr.ChannelID,
		attr.Key,
		attr.Value,
		formatTime(attr.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return store.ErrNotFound
		}
		return err
	}
	return nil
}

// ListChannelAttrs returns all attributes of a channel ordered by key.
func (s *Store) ListChannelAttrs(ctx context.Context, channelID string) ([]*domain.ChannelAttr, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT channel_id, key, value, updated_at FROM channel_attrs
		WHERE channel_id = ? ORDER BY key ASC`, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attrs []*domain.ChannelAttr
	for rows.Next() {
		var a domain.ChannelAttr
		var updatedAt string
		if err := rows.Scan(&a.ChannelID, &a.Key, &a.Value, &updatedAt); err != nil {
			return nil, err
		}
		a.UpdatedAt, err = parseTime(updatedAt)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attrs, nil
}
