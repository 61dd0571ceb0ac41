package service

import (
	"context"
	"errors"
	"fmt"
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

// VaultService manages per-user vaults and their links and shares.
type VaultService struct {
	store       *sqlite.Store
	permissions *PermissionService
	blobs       *blob.Store
	emitter     store.EventEmitter
	logger      *slog.Logger
}

// NewVaultService creates a new vault service.
func NewVaultService(
	store *sqlite.Store,
	permissions *PermissionService,
	blobs *blob.Store,
	emitter store.EventEmitter,
	logger *slog.Logger,
) *VaultService {
	return &VaultService{
		store:       store,
		permissions: permissions,
		blobs:       blobs,
		emitter:     emitter,
		logger:      logger,
	}
}

// CreateVaultRequest contains the data needed to create a vault.
type CreateVaultRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// CreateVault creates a vault owned by the user.
func (s *VaultService) CreateVault(ctx context.Context, ownerID string, req CreateVaultRequest) (*domain.Vault, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	now := time.Now()
	vault := &domain.Vault{
		ID:        id.MustGenerate("vlt"),
		OwnerID:   ownerID,
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateVault(ctx, vault); err != nil {
		return nil, fmt.Errorf("create vault: %w", err)
	}

	s.logger.Info("vault created", "vault_id", vault.ID, "owner_id", ownerID)

	return vault, nil
}

// GetVault returns a vault. The requester needs any effective permission
// on it (ownership, a direct share, or a link into one of their spaces).
func (s *VaultService) GetVault(ctx context.Context, userID, vaultID string) (*domain.Vault, error) {
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
	if len(perms) == 0 {
		return nil, domainerrors.Forbidden("you do not have access to this vault")
	}
	return vault, nil
}

// ListVaults returns the vaults the user owns.
func (s *VaultService) ListVaults(ctx context.Context, ownerID string) ([]*domain.Vault, error) {
	vaults, err := s.store.ListVaultsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list vaults: %w", err)
	}
	return vaults, nil
}

// DeleteVault removes a vault, its links and shares, its file metadata,
// and its blobs. Only the owner may. Links and shares cascade in sqlite;
// blobs are swept here, best effort, before the rows go.
func (s *VaultService) DeleteVault(ctx context.Context, userID, vaultID string) error {
	vault, err := s.store.GetVault(ctx, vaultID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("vault not found")
		}
		return fmt.Errorf("get vault: %w", err)
	}
	if vault.OwnerID != userID {
		return domainerrors.Forbidden("only the vault owner can delete it")
	}

	paths, err := s.store.ListFilePathsByOwner(ctx, domain.FileOwnerVault, vaultID)
	if err != nil {
		return fmt.Errorf("list vault file paths: %w", err)
	}
	for _, path := range paths {
		if err := s.blobs.Delete(path); err != nil {
			s.logger.Warn("failed to delete vault blob",
				"vault_id", vaultID,
				"path", path,
				"error", err,
			)
		}
	}
	if _, err := s.store.DeleteFilesByOwner(ctx, domain.FileOwnerVault, vaultID); err != nil {
		return fmt.Errorf("delete vault file rows: %w", err)
	}

	if err := s.store.DeleteVault(ctx, vaultID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("vault not found")
		}
		return fmt.Errorf("delete vault: %w", err)
	}

	s.logger.Info("vault deleted",
		"vault_id", vaultID,
		"owner_id", userID,
		"files_removed", len(paths),
	)

	return nil
}

// LinkVaultToSpace shares a vault into a space with a permission set.
// Only the vault owner may link, and they must be a member of the space.
func (s *VaultService) LinkVaultToSpace(ctx context.Context, userID, vaultID, spaceID string, perms []string) (*domain.VaultLink, error) {
	vault, err := s.store.GetVault(ctx, vaultID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("vault not found")
		}
		return nil, fmt.Errorf("get vault: %w", err)
	}
	if !s.permissions.CanShareVault(vault, userID) {
		return nil, domainerrors.Forbidden("only the vault owner can share it")
	}
	if err := s.permissions.requireMember(ctx, spaceID, userID); err != nil {
		return nil, err
	}

	normalized := domain.NormalizePerms(perms)
	if len(normalized) == 0 {
		return nil, domainerrors.Validation("at least one of read or write is required")
	}

	link := &domain.VaultLink{
		ID:        id.MustGenerate("lnk"),
		VaultID:   vaultID,
		SpaceID:   spaceID,
		Perms:     normalized,
		CreatedBy: userID,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateVaultLink(ctx, link); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("vault is already linked to this space")
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("vault or space not found")
		}
		return nil, fmt.Errorf("create vault link: %w", err)
	}

	s.emitter.Emit(sse.NewVaultLinkedEvent(link))

	return link, nil
}

// UnlinkVault removes a vault's link into a space. The vault owner or a
// space owner/admin may unlink.
func (s *VaultService) UnlinkVault(ctx context.Context, userID, vaultID, spaceID string) error {
	vault, err := s.store.GetVault(ctx, vaultID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("vault not found")
		}
		return fmt.Errorf("get vault: %w", err)
	}

	if !s.permissions.CanShareVault(vault, userID) {
		ok, err := s.permissions.IsOwnerOrAdmin(ctx, spaceID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return domainerrors.Forbidden("unlinking requires the vault owner or a space admin")
		}
	}

	if err := s.store.DeleteVaultLink(ctx, vaultID, spaceID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("vault link not found")
		}
		return fmt.Errorf("delete vault link: %w", err)
	}
	return nil
}

// ShareVaultWithUser grants a single user access to a vault. Only the
// vault owner may share, and not with themselves.
func (s *VaultService) ShareVaultWithUser(ctx context.Context, userID, vaultID, granteeID string, perms []string) (*domain.VaultShare, error) {
	vault, err := s.store.GetVault(ctx, vaultID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("vault not found")
		}
		return nil, fmt.Errorf("get vault: %w", err)
	}
	if !s.permissions.CanShareVault(vault, userID) {
		return nil, domainerrors.Forbidden("only the vault owner can share it")
	}
	if granteeID == userID {
		return nil, domainerrors.Validation("you cannot share a vault with yourself")
	}

	normalized := domain.NormalizePerms(perms)
	if len(normalized) == 0 {
		return nil, domainerrors.Validation("at least one of read or write is required")
	}

	share := &domain.VaultShare{
		ID:        id.MustGenerate("shr"),
		VaultID:   vaultID,
		GranteeID: granteeID,
		Perms:     normalized,
		CreatedBy: userID,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateVaultShare(ctx, share); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("vault is already shared with this user")
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("vault or user not found")
		}
		return nil, fmt.Errorf("create vault share: %w", err)
	}

	s.emitter.Emit(sse.NewVaultSharedEvent(share))

	return share, nil
}

// RevokeShare removes a user's direct access to a vault. Only the vault
// owner may revoke.
func (s *VaultService) RevokeShare(ctx context.Context, userID, vaultID, granteeID string) error {
	vault, err := s.store.GetVault(ctx, vaultID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("vault not found")
		}
		return fmt.Errorf("get vault: %w", err)
	}
	if !s.permissions.CanShareVault(vault, userID) {
		return domainerrors.Forbidden("only the vault owner can revoke a share")
	}

	if err := s.store.DeleteVaultShare(ctx, vaultID, granteeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("vault share not found")
		}
		return fmt.Errorf("delete vault share: %w", err)
	}
	return nil
}

// VaultAccess describes where a vault is linked and who it is shared with.
type VaultAccess struct {
	Links  []*domain.VaultLink  `json:"links"`
	Shares []*domain.VaultShare `json:"shares"`
}

// ListVaultAccess returns a vault's links and shares. Only the owner may.
func (s *VaultService) ListVaultAccess(ctx context.Context, userID, vaultID string) (*VaultAccess, error) {
	vault, err := s.store.GetVault(ctx, vaultID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("vault not found")
		}
		return nil, fmt.Errorf("get vault: %w", err)
	}
	if !s.permissions.CanShareVault(vault, userID) {
		return nil, domainerrors.Forbidden("only the vault owner can inspect its access")
	}

	shares, err := s.store.ListVaultShares(ctx, vaultID)
	if err != nil {
		return nil, fmt.Errorf("list vault shares: %w", err)
	}

	links, err := s.store.ListVaultLinksForVault(ctx, vaultID)
	if err != nil {
		return nil, fmt.Errorf("list vault links: %w", err)
	}

	return &VaultAccess{Links: links, Shares: shares}, nil
}

// ListSpaceVaults returns the vaults linked into a space. Requires
// membership.
func (s *VaultService) ListSpaceVaults(ctx context.Context, userID, spaceID string) ([]*domain.VaultLink, error) {
	if err := s.permissions.requireMember(ctx, spaceID, userID); err != nil {
		return nil, err
	}

	links, err := s.store.ListVaultLinksForSpace(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("list vault links: %w", err)
	}
	return links, nil
}
