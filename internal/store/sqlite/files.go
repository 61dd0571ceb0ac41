package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/havenapp/haven-server/internal/domain"
	"github.com/havenapp/haven-server/internal/store"
)

const fileColumns = `id, owner_kind, owner_id, name, path, size, mime_type, blurhash, uploaded_by, created_at`

func scanFile(scanner interface{ Scan(dest ...any) error }) (*domain.File, error) {
	var f domain.File

	var ownerKind, createdAt string

	err := scanner.Scan(
		&f.ID,
		&ownerKind,
		&f.OwnerID,
		&f.Name,
		&f.Path,
		&f.Size,
		&f.MimeType,
		&f.Blurhash,
		&f.UploadedBy,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	f.OwnerKind = domain.FileOwnerKind(ownerKind)
	f.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &f, nil
}

// CreateFile inserts file metadata. The blob must already be on disk;
// callers are responsible for removing it if this insert fails.
func (s *Store) CreateFile(ctx context.Context, file *domain.File) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (`+fileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		file.ID,
		string(file.OwnerKind),
		file.OwnerID,
		file.Name,
		file.Path,
		file.Size,
		file.MimeType,
		file.Blurhash,
		file.UploadedBy,
		formatTime(file.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetFile retrieves file metadata by ID.
// Returns store.ErrNotFound if the file does not exist.
func (s *Store) GetFile(ctx context.Context, id string) (*domain.File, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE id = ?`, id)

	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ListFiles returns all files of an owner (a vault or a space) ordered by name.
func (s *Store) ListFiles(ctx context.Context, ownerKind domain.FileOwnerKind, ownerID string) ([]*domain.File, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE owner_kind = ? AND owner_id = ? ORDER BY name ASC`,
		string(ownerKind), ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*domain.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return files, nil
}

// GetFileByName retrieves a file by owner and name.
func (s *Store) GetFileByName(ctx context.Context, ownerKind domain.FileOwnerKind, ownerID, name string) (*domain.File, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE owner_kind = ? AND owner_id = ? AND name = ?`,
		string(ownerKind), ownerID, name)

	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// DeleteFile removes file metadata. Blob cleanup is the caller's job.
func (s *Store) DeleteFile(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id)
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

// DeleteFilesByOwner removes all file metadata of an owner. Used when a
// vault or space is deleted; returns the number of rows removed.
func (s *Store) DeleteFilesByOwner(ctx context.Context, ownerKind domain.FileOwnerKind, ownerID string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM files WHERE owner_kind = ? AND owner_id = ?`,
		string(ownerKind), ownerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ListFilePathsByOwner returns the blob paths of an owner's files, used
// to sweep blobs when the owning vault or space is deleted.
func (s *Store) ListFilePathsByOwner(ctx context.Context, ownerKind domain.FileOwnerKind, ownerID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path FROM files WHERE owner_kind = ? AND owner_id = ?`,
		string(ownerKind), ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}
