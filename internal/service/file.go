package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/havenapp/haven-server/internal/blob"
	"github.com/havenapp/haven-server/internal/domain"
	domainerrors "github.com/havenapp/haven-server/internal/errors"
	"github.com/havenapp/haven-server/internal/id"
	"github.com/havenapp/haven-server/internal/sse"
	"github.com/havenapp/haven-server/internal/store"
	"github.com/havenapp/haven-server/internal/store/sqlite"
)

// FileService manages file uploads, downloads, and deletion for vaults
// and spaces. Bytes live in the blob store; metadata lives in sqlite.
type FileService struct {
	store       *sqlite.Store
	permissions *PermissionService
	blobs       *blob.Store
	emitter     store.EventEmitter
	logger      *slog.Logger
	maxFileSize int64
}

// NewFileService creates a new file service. maxFileSize is the per-file
// upload limit in bytes.
func NewFileService(
	store *sqlite.Store,
	permissions *PermissionService,
	blobs *blob.Store,
	emitter store.EventEmitter,
	logger *slog.Logger,
	maxFileSize int64,
) *FileService {
	return &FileService{
		store:       store,
		permissions: permissions,
		blobs:       blobs,
		emitter:     emitter,
		logger:      logger,
		maxFileSize: maxFileSize,
	}
}

// UploadRequest describes one file to store.
type UploadRequest struct {
	Name     string
	MimeType string
	Data     []byte
}

// UploadVaultFile stores a file in a vault. The uploader needs write
// permission on the vault.
func (s *FileService) UploadVaultFile(ctx context.Context, userID, vaultID string, req UploadRequest) (*domain.File, error) {
	vault, err := s.store.GetVault(ctx, vaultID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("vault not found")
		}
		return nil, fmt.Errorf("get vault: %w", err)
	}

	perms, err := s.permissions.VaultPerms(ctx, vault, userID)
	if err != nil {
		return nil, err
	}
	if !perms.Has(domain.PermWrite) {
		return nil, domainerrors.Forbidden("you do not have write access to this vault")
	}

	return s.upload(ctx, userID, domain.FileOwnerVault, vaultID, "", req)
}

// UploadSpaceFile stores a file in a space. The uploader must be a
// member.
func (s *FileService) UploadSpaceFile(ctx context.Context, userID, spaceID string, req UploadRequest) (*domain.File, error) {
	if err := s.permissions.requireMember(ctx, spaceID, userID); err != nil {
		return nil, err
	}
	return s.upload(ctx, userID, domain.FileOwnerSpace, spaceID, spaceID, req)
}

// upload validates the file, writes the blob, then inserts the metadata
// row. The size check happens before the blob store is touched. If the
// metadata insert fails after the blob write, the orphaned blob is
// removed best effort and the failure still surfaces.
func (s *FileService) upload(ctx context.Context, userID string, ownerKind domain.FileOwnerKind, ownerID, eventSpaceID string, req UploadRequest) (*domain.File, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domainerrors.Validation("file name cannot be empty")
	}
	size := int64(len(req.Data))
	if size == 0 {
		return nil, domainerrors.Validationf("file %q is empty", name)
	}
	if size > s.maxFileSize {
		return nil, domainerrors.Validationf("file %q exceeds the %d MB limit", name, s.maxFileSize/(1<<20))
	}

	if _, err := s.store.GetFileByName(ctx, ownerKind, ownerID, name); err == nil {
		return nil, domainerrors.Conflictf("a file named %q already exists", name)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check file name: %w", err)
	}

	fileID := id.MustGenerate("fil")
	key := blob.Key(string(ownerKind), ownerID, fileID)

	if _, err := s.blobs.Save(key, bytes.NewReader(req.Data)); err != nil {
		return nil, domainerrors.Storagef("failed to store file %q", name).WithCause(err)
	}

	file := &domain.File{
		ID:         fileID,
		OwnerKind:  ownerKind,
		OwnerID:    ownerID,
		Name:       name,
		Path:       key,
		Size:       size,
		MimeType:   req.MimeType,
		UploadedBy: userID,
		CreatedAt:  time.Now(),
	}

	if file.IsImage() {
		hash, err := blob.ComputeBlurHash(bytes.NewReader(req.Data))
		if err != nil {
			// A preview is optional; keep the upload.
			s.logger.Warn("failed to compute blurhash",
				"file_id", fileID,
				"name", name,
				"error", err,
			)
		} else {
			file.Blurhash = hash
		}
	}

	if err := s.store.CreateFile(ctx, file); err != nil {
		if delErr := s.blobs.Delete(key); delErr != nil {
			s.logger.Warn("failed to delete orphaned blob",
				"path", key,
				"error", delErr,
			)
		}
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflictf("a file named %q already exists", name)
		}
		return nil, fmt.Errorf("create file record: %w", err)
	}

	if eventSpaceID != "" {
		s.emitter.Emit(sse.NewFileUploadedEvent(eventSpaceID, file))
	}

	s.logger.Info("file uploaded",
		"file_id", fileID,
		"owner_kind", ownerKind,
		"owner_id", ownerID,
		"size", size,
	)

	return file, nil
}

// ListVaultFiles returns a vault's files. The requester needs read
// permission on the vault.
func (s *FileService) ListVaultFiles(ctx context.Context, userID, vaultID string) ([]*domain.File, error) {
	vault, err := s.store.GetVault(ctx, vaultID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("vault not found")
		}
		return nil, fmt.Errorf("get vault: %w", err)
	}

	perms, err := s.permissions.VaultPerms(ctx, vault, userID)
	if err != nil {
		return nil, err
	}
	if !perms.Has(domain.PermRead) {
		return nil, domainerrors.Forbidden("you do not have read access to this vault")
	}

	files, err := s.store.ListFiles(ctx, domain.FileOwnerVault, vaultID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

// ListSpaceFiles returns a space's files. Requires membership.
func (s *FileService) ListSpaceFiles(ctx context.Context, userID, spaceID string) ([]*domain.File, error) {
	if err := s.permissions.requireMember(ctx, spaceID, userID); err != nil {
		return nil, err
	}

	files, err := s.store.ListFiles(ctx, domain.FileOwnerSpace, spaceID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

// DownloadFile opens a file's bytes for reading. The caller must close
// the returned reader.
func (s *FileService) DownloadFile(ctx context.Context, userID, fileID string) (*domain.File, io.ReadCloser, error) {
	file, err := s.authorizeRead(ctx, userID, fileID)
	if err != nil {
		return nil, nil, err
	}

	r, err := s.blobs.Open(file.Path)
	if err != nil {
		return nil, nil, domainerrors.Storagef("failed to open file %q", file.Name).WithCause(err)
	}
	return file, r, nil
}

// DeleteFile removes a file's metadata row, then its blob. Blob delete
// failures are logged only; the metadata row is already gone.
func (s *FileService) DeleteFile(ctx context.Context, userID, fileID string) error {
	file, err := s.getFile(ctx, fileID)
	if err != nil {
		return err
	}

	switch file.OwnerKind {
	case domain.FileOwnerVault:
		vault, err := s.store.GetVault(ctx, file.OwnerID)
		if err != nil {
			return fmt.Errorf("get vault: %w", err)
		}
		perms, err := s.permissions.VaultPerms(ctx, vault, userID)
		if err != nil {
			return err
		}
		if !perms.Has(domain.PermWrite) {
			return domainerrors.Forbidden("you do not have write access to this vault")
		}
	case domain.FileOwnerSpace:
		if file.UploadedBy != userID {
			ok, err := s.permissions.IsOwnerOrAdmin(ctx, file.OwnerID, userID)
			if err != nil {
				return err
			}
			if !ok {
				return domainerrors.Forbidden("deleting another member's file requires the owner or admin role")
			}
		}
	}

	if err := s.store.DeleteFile(ctx, fileID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("file not found")
		}
		return fmt.Errorf("delete file record: %w", err)
	}

	if err := s.blobs.Delete(file.Path); err != nil {
		s.logger.Warn("failed to delete blob",
			"file_id", fileID,
			"path", file.Path,
			"error", err,
		)
	}

	if file.OwnerKind == domain.FileOwnerSpace {
		s.emitter.Emit(sse.NewFileDeletedEvent(file.OwnerID, fileID, time.Now()))
	}

	return nil
}

// GetFile returns a file's metadata after an access check.
func (s *FileService) GetFile(ctx context.Context, userID, fileID string) (*domain.File, error) {
	return s.authorizeRead(ctx, userID, fileID)
}

func (s *FileService) getFile(ctx context.Context, fileID string) (*domain.File, error) {
	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("file not found")
		}
		return nil, fmt.Errorf("get file: %w", err)
	}
	return file, nil
}

// authorizeRead loads a file and verifies the user may read it.
func (s *FileService) authorizeRead(ctx context.Context, userID, fileID string) (*domain.File, error) {
	file, err := s.getFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	switch file.OwnerKind {
	case domain.FileOwnerVault:
		vault, err := s.store.GetVault(ctx, file.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("get vault: %w", err)
		}
		perms, err := s.permissions.VaultPerms(ctx, vault, userID)
		if err != nil {
			return nil, err
		}
		if !perms.Has(domain.PermRead) {
			return nil, domainerrors.Forbidden("you do not have read access to this vault")
		}
	case domain.FileOwnerSpace:
		if err := s.permissions.requireMember(ctx, file.OwnerID, userID); err != nil {
			return nil, err
		}
	}
	return file, nil
}
