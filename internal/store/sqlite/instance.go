package sqlite

import (
	"context"
	"database/sql"

	"github.com/havenapp/haven-server/internal/domain"
	"github.com/havenapp/haven-server/internal/store"
)

// GetInstance retrieves the singleton instance record.
// Returns store.ErrNotFound if the server has not been set up yet.
func (s *Store) GetInstance(ctx context.Context) (*domain.Instance, error) {
	var inst domain.Instance

	var localURL, remoteURL sql.NullString
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, version, local_url, remote_url, created_at, updated_at
		FROM instance LIMIT 1`).Scan(
		&inst.ID,
		&inst.Name,
		&inst.Version,
		&localURL,
		&remoteURL,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	inst.LocalURL = localURL.String
	inst.RemoteURL = remoteURL.String
	inst.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	inst.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	rootCount := 0
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE is_root = 1`).Scan(&rootCount)
	if err != nil {
		return nil, err
	}
	inst.HasRootUser = rootCount > 0

	return &inst, nil
}

// CreateInstance inserts the singleton instance record.
// Returns store.ErrAlreadyExists if the server is already set up.
func (s *Store) CreateInstance(ctx context.Context, inst *domain.Instance) error {
	count := 0
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM instance`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return store.ErrAlreadyExists
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO instance (id, name, version, local_url, remote_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inst.ID,
		inst.Name,
		inst.Version,
		nullString(inst.LocalURL),
		nullString(inst.RemoteURL),
		formatTime(inst.CreatedAt),
		formatTime(inst.UpdatedAt),
	)
	return err
}

// UpdateInstance saves changes to the instance record.
func (s *Store) UpdateInstance(ctx context.Context, inst *domain.Instance) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE instance SET name = ?, version = ?, local_url = ?, remote_url = ?, updated_at = ?
		WHERE id = ?`,
		inst.Name,
		inst.Version,
		nullString(inst.LocalURL),
		nullString(inst.RemoteURL),
		formatTime(inst.UpdatedAt),
		inst.ID,
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
	return nil
}
