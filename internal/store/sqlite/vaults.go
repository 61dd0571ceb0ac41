package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/havenapp/haven-server/internal/domain"
	"github.com/havenapp/haven-server/internal/store"
)

// Perms are stored as a comma-joined string, e.g. "read,write".

const vaultColumns = `id, owner_id, name, created_at, updated_at`

func scanVault(scanner interface{ Scan(dest ...any) error }) (*domain.Vault, error) {
	var v domain.Vault

	var createdAt, updatedAt string

	err := scanner.Scan(
		&v.ID,
		&v.OwnerID,
		&v.Name,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	v.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &v, nil
}

func joinPerms(perms domain.Perms) string {
	return strings.Join(perms.Strings(), ",")
}

func splitPerms(s string) domain.Perms {
	if s == "" {
		return nil
	}
	return domain.NormalizePerms(strings.Split(s, ","))
}

// CreateVault inserts a new vault into the database.
func (s *Store) CreateVault(ctx context.Context, vault *domain.Vault) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vaults (id, owner_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		vault.ID,
		vault.OwnerID,
		vault.Name,
		formatTime(vault.CreatedAt),
		formatTime(vault.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetVault retrieves a vault by ID.
// Returns store.ErrNotFound if the vault does not exist.
func (s *Store) GetVault(ctx context.Context, id string) (*domain.Vault, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+vaultColumns+` FROM vaults WHERE id = ?`, id)

	v, err := scanVault(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ListVaultsByOwner returns all vaults owned by a user.
func (s *Store) ListVaultsByOwner(ctx context.Context, ownerID string) ([]*domain.Vault, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+vaultColumns+` FROM vaults WHERE owner_id = ? ORDER BY created_at ASC`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vaults []*domain.Vault
	for rows.Next() {
		v, err := scanVault(rows)
		if err != nil {
			return nil, err
		}
		vaults = append(vaults, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vaults, nil
}

// UpdateVault saves changes to an existing vault.
func (s *Store) UpdateVault(ctx context.Context, vault *domain.Vault) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE vaults SET name = ?, updated_at = ? WHERE id = ?`,
		vault.Name,
		formatTime(vault.UpdatedAt),
		vault.ID,
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

// DeleteVault removes a vault. Links and shares go with it via foreign
// key cascades. File metadata has no foreign key (files are owned by
// either a vault or a space), so callers delete file rows and blobs
// before removing the vault.
func (s *Store) DeleteVault(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM vaults WHERE id = ?`, id)
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

// CreateVaultLink links a vault into a space.
// Returns store.ErrAlreadyExists if the vault is already linked there.
func (s *Store) CreateVaultLink(ctx context.Context, link *domain.VaultLink) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vault_links (id, vault_id, space_id, perms, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		link.ID,
		link.VaultID,
		link.SpaceID,
		joinPerms(link.Perms),
		link.CreatedBy,
		formatTime(link.CreatedAt),
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
	return nil
}

// GetVaultLink retrieves the link between a vault and a space.
func (s *Store) GetVaultLink(ctx context.Context, vaultID, spaceID string) (*domain.VaultLink, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, vault_id, space_id, perms, created_by, created_at
		FROM vault_links WHERE vault_id = ? AND space_id = ?`,
		vaultID, spaceID)

	link, err := scanVaultLink(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

// ListVaultLinksForSpace returns all vault links of a space.
func (s *Store) ListVaultLinksForSpace(ctx context.Context, spaceID string) ([]*domain.VaultLink, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, vault_id, space_id, perms, created_by, created_at
		FROM vault_links WHERE space_id = ? ORDER BY created_at ASC`, spaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*domain.VaultLink
	for rows.Next() {
		link, err := scanVaultLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return links, nil
}

// ListVaultLinksForVault returns every space link of a vault.
func (s *Store) ListVaultLinksForVault(ctx context.Context, vaultID string) ([]*domain.VaultLink, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, vault_id, space_id, perms, created_by, created_at
		FROM vault_links WHERE vault_id = ? ORDER BY created_at ASC`, vaultID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*domain.VaultLink
	for rows.Next() {
		link, err := scanVaultLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return links, nil
}

// DeleteVaultLink removes a vault from a space.
func (s *Store) DeleteVaultLink(ctx context.Context, vaultID, spaceID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM vault_links WHERE vault_id = ? AND space_id = ?`, vaultID, spaceID)
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

func scanVaultLink(scanner interface{ Scan(dest ...any) error }) (*domain.VaultLink, error) {
	var link domain.VaultLink

	var perms, createdAt string

	err := scanner.Scan(
		&link.ID,
		&link.VaultID,
		&link.SpaceID,
		&perms,
		&link.CreatedBy,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	link.Perms = splitPerms(perms)
	link.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &link, nil
}

// CreateVaultShare grants a user access to a vault.
// Returns store.ErrAlreadyExists if the grantee already has a share.
func (s *Store) CreateVaultShare(ctx context.Context, share *domain.VaultShare) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vault_shares (id, vault_id, grantee_id, perms, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		share.ID,
		share.VaultID,
		share.GranteeID,
		joinPerms(share.Perms),
		share.CreatedBy,
		formatTime(share.CreatedAt),
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
	return nil
}

// GetVaultShare retrieves a grantee's share on a vault.
func (s *Store) GetVaultShare(ctx context.Context, vaultID, granteeID string) (*domain.VaultShare, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, vault_id, grantee_id, perms, created_by, created_at
		FROM vault_shares WHERE vault_id = ? AND grantee_id = ?`,
		vaultID, granteeID)

	share, err := scanVaultShare(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return share, nil
}

// ListVaultShares returns all shares on a vault.
func (s *Store) ListVaultShares(ctx context.Context, vaultID string) ([]*domain.VaultShare, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, vault_id, grantee_id, perms, created_by, created_at
		FROM vault_shares WHERE vault_id = ? ORDER BY created_at ASC`, vaultID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shares []*domain.VaultShare
	for rows.Next() {
		share, err := scanVaultShare(rows)
		if err != nil {
			return nil, err
		}
		shares = append(shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return shares, nil
}

// DeleteVaultShare revokes a grantee's share.
func (s *Store) DeleteVaultShare(ctx context.Context, vaultID, granteeID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM vault_shares WHERE vault_id = ? AND grantee_id = ?`, vaultID, granteeID)
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

func scanVaultShare(scanner interface{ Scan(dest ...any) error }) (*domain.VaultShare, error) {
	var share domain.VaultShare

	var perms, createdAt string

	err := scanner.Scan(
		&share.ID,
		&share.VaultID,
		&share.GranteeID,
		&perms,
		&share.CreatedBy,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	share.Perms = splitPerms(perms)
	share.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &share, nil
}
