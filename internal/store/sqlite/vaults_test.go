package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/havenapp/haven-server/internal/domain"
	"github.com/havenapp/haven-server/internal/store"
)

func makeTestVault(id, ownerID string) *domain.Vault {
	now := time.Now()
	return &domain.Vault{
		ID:        id,
		OwnerID:   ownerID,
		Name:      "My Vault",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAndGetVault(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-1")

	if err := s.CreateVault(ctx, makeTestVault("vlt-1", "user-1")); err != nil {
		t.Fatalf("CreateVault: %v", err)
	}

	got, err := s.GetVault(ctx, "vlt-1")
	if err != nil {
		t.Fatalf("GetVault: %v", err)
	}
	if got.OwnerID != "user-1" {
		t.Errorf("OwnerID: got %q, want %q", got.OwnerID, "user-1")
	}
	if got.Name != "My Vault" {
		t.Errorf("Name: got %q, want %q", got.Name, "My Vault")
	}

	_, err = s.GetVault(ctx, "vlt-missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestVaultLinks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-1")
	insertTestSpace(t, s, "spc-1", "user-1")
	if err := s.CreateVault(ctx, makeTestVault("vlt-1", "user-1")); err != nil {
		t.Fatalf("CreateVault: %v", err)
	}

	link := &domain.VaultLink{
		ID:        "lnk-1",
		VaultID:   "vlt-1",
		SpaceID:   "spc-1",
		Perms:     domain.Perms{domain.PermRead, domain.PermWrite},
		CreatedBy: "user-1",
		CreatedAt: time.Now(),
	}
	if err := s.CreateVaultLink(ctx, link); err != nil {
		t.Fatalf("CreateVaultLink: %v", err)
	}

	got, err := s.GetVaultLink(ctx, "vlt-1", "spc-1")
	if err != nil {
		t.Fatalf("GetVaultLink: %v", err)
	}
	if !got.Perms.Has(domain.PermRead) || !got.Perms.Has(domain.PermWrite) {
		t.Errorf("Perms: got %v, want read+write", got.Perms)
	}

	// Linking the same vault twice conflicts.
	dup := &domain.VaultLink{
		ID:        "lnk-2",
		VaultID:   "vlt-1",
		SpaceID:   "spc-1",
		Perms:     domain.Perms{domain.PermRead},
		CreatedBy: "user-1",
		CreatedAt: time.Now(),
	}
	if err := s.CreateVaultLink(ctx, dup); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	links, err := s.ListVaultLinksForSpace(ctx, "spc-1")
	if err != nil {
		t.Fatalf("ListVaultLinksForSpace: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}

	if err := s.DeleteVaultLink(ctx, "vlt-1", "spc-1"); err != nil {
		t.Fatalf("DeleteVaultLink: %v", err)
	}
	if err := s.DeleteVaultLink(ctx, "vlt-1", "spc-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestVaultShares(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-1")
	insertTestUser(t, s, "user-2")
	if err := s.CreateVault(ctx, makeTestVault("vlt-1", "user-1")); err != nil {
		t.Fatalf("CreateVault: %v", err)
	}

	share := &domain.VaultShare{
		ID:        "shr-1",
		VaultID:   "vlt-1",
		GranteeID: "user-2",
		Perms:     domain.Perms{domain.PermRead},
		CreatedBy: "user-1",
		CreatedAt: time.Now(),
	}
	if err := s.CreateVaultShare(ctx, share); err != nil {
		t.Fatalf("CreateVaultShare: %v", err)
	}

	got, err := s.GetVaultShare(ctx, "vlt-1", "user-2")
	if err != nil {
		t.Fatalf("GetVaultShare: %v", err)
	}
	if got.Perms.Has(domain.PermWrite) {
		t.Error("Perms: write should not be granted")
	}

	shares, err := s.ListVaultShares(ctx, "vlt-1")
	if err != nil {
		t.Fatalf("ListVaultShares: %v", err)
	}
	if len(shares) != 1 {
		t.Fatalf("expected 1 share, got %d", len(shares))
	}

	if err := s.DeleteVaultShare(ctx, "vlt-1", "user-2"); err != nil {
		t.Fatalf("DeleteVaultShare: %v", err)
	}
	if _, err := s.GetVaultShare(ctx, "vlt-1", "user-2"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteVaultCascadesLinksAndShares(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-1")
	insertTestUser(t, s, "user-2")
	insertTestSpace(t, s, "spc-1", "user-1")
	if err := s.CreateVault(ctx, makeTestVault("vlt-1", "user-1")); err != nil {
		t.Fatalf("CreateVault: %v", err)
	}

	link := &domain.VaultLink{
		ID: "lnk-1", VaultID: "vlt-1", SpaceID: "spc-1",
		Perms: domain.Perms{domain.PermRead}, CreatedBy: "user-1", CreatedAt: time.Now(),
	}
	if err := s.CreateVaultLink(ctx, link); err != nil {
		t.Fatalf("CreateVaultLink: %v", err)
	}
	share := &domain.VaultShare{
		ID: "shr-1", VaultID: "vlt-1", GranteeID: "user-2",
		Perms: domain.Perms{domain.PermRead}, CreatedBy: "user-1", CreatedAt: time.Now(),
	}
	if err := s.CreateVaultShare(ctx, share); err != nil {
		t.Fatalf("CreateVaultShare: %v", err)
	}

	if err := s.DeleteVault(ctx, "vlt-1"); err != nil {
		t.Fatalf("DeleteVault: %v", err)
	}

	if _, err := s.GetVaultLink(ctx, "vlt-1", "spc-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected link to cascade, got %v", err)
	}
	if _, err := s.GetVaultShare(ctx, "vlt-1", "user-2"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected share to cascade, got %v", err)
	}
}
