package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/havenapp/haven-server/internal/domain"
	domainerrors "github.com/havenapp/haven-server/internal/errors"
	"github.com/havenapp/haven-server/internal/store"
	"github.com/havenapp/haven-server/internal/store/sqlite"
)

// PermissionService answers membership and authorization questions.
// Every mutating operation on spaces, channels, members, and vaults goes
// through one of these checks before the store is touched, so a missed
// check at a single call site cannot escalate roles or remove an owner.
type PermissionService struct {
	store *sqlite.Store
}

// NewPermissionService creates a new permission service.
func NewPermissionService(store *sqlite.Store) *PermissionService {
	return &PermissionService{store: store}
}

// IsMember reports whether the user has a membership in the space.
func (s *PermissionService) IsMember(ctx context.Context, spaceID, userID string) (bool, error) {
	_, err := s.store.GetMembershipByUser(ctx, spaceID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get membership: %w", err)
	}
	return true, nil
}

// RoleOf returns the user's role in the space, or false if the user is
// not a member.
func (s *PermissionService) RoleOf(ctx context.Context, spaceID, userID string) (domain.SpaceRole, bool, error) {
	membership, err := s.store.GetMembershipByUser(ctx, spaceID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get membership: %w", err)
	}
	return membership.Role, true, nil
}

// IsOwnerOrAdmin reports whether the user holds the owner or admin role
// in the space.
func (s *PermissionService) IsOwnerOrAdmin(ctx context.Context, spaceID, userID string) (bool, error) {
	role, ok, err := s.RoleOf(ctx, spaceID, userID)
	if err != nil {
		return false, err
	}
	return ok && role.IsOwnerOrAdmin(), nil
}

// CanDeleteChannel reports whether the user may delete the channel.
// Requires owner or admin role, and the channel must not be the space's
// cloud channel.
func (s *PermissionService) CanDeleteChannel(ctx context.Context, userID string, channel *domain.Channel) (bool, error) {
	if channel.IsCloud() {
		return false, nil
	}
	return s.IsOwnerOrAdmin(ctx, channel.SpaceID, userID)
}

// CanRemoveMember reports whether the acting user may remove the target
// membership. Requires owner or admin role, and the target must not hold
// the owner role.
func (s *PermissionService) CanRemoveMember(ctx context.Context, actingUserID string, target *domain.Membership) (bool, error) {
	if target.IsOwner() {
		return false, nil
	}
	return s.IsOwnerOrAdmin(ctx, target.SpaceID, actingUserID)
}

// CanShareVault reports whether the acting user may link or share the
// vault. Only the vault's owner may.
func (s *PermissionService) CanShareVault(vault *domain.Vault, actingUserID string) bool {
	return vault.OwnerID == actingUserID
}

// VaultPerms resolves the effective permission set the user holds on the
// vault: owners get read and write, direct grantees get their share's
// perms, and members of a linked space get the union of the link perms
// across their spaces.
func (s *PermissionService) VaultPerms(ctx context.Context, vault *domain.Vault, userID string) (domain.Perms, error) {
	if vault.OwnerID == userID {
		return domain.Perms{domain.PermRead, domain.PermWrite}, nil
	}

	var out domain.Perms

	share, err := s.store.GetVaultShare(ctx, vault.ID, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get vault share: %w", err)
	}
	if share != nil {
		out = append(out, share.Perms...)
	}

	links, err := s.store.ListVaultLinksForVault(ctx, vault.ID)
	if err != nil {
		return nil, fmt.Errorf("list vault links: %w", err)
	}
	for _, link := range links {
		member, err := s.IsMember(ctx, link.SpaceID, userID)
		if err != nil {
			return nil, err
		}
		if !member {
			continue
		}
		for _, p := range link.Perms {
			if !out.Has(p) {
				out = append(out, p)
			}
		}
	}

	return out, nil
}

// requireMember returns a ForbiddenError unless the user is a member of
// the space.
func (s *PermissionService) requireMember(ctx context.Context, spaceID, userID string) error {
	ok, err := s.IsMember(ctx, spaceID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domainerrors.Forbidden("you are not a member of this space")
	}
	return nil
}

// requireOwnerOrAdmin returns a ForbiddenError unless the user holds the
// owner or admin role in the space.
func (s *PermissionService) requireOwnerOrAdmin(ctx context.Context, spaceID, userID string) error {
	ok, err := s.IsOwnerOrAdmin(ctx, spaceID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domainerrors.Forbidden("this action requires the owner or admin role")
	}
	return nil
}
