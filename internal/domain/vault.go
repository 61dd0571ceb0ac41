package domain

import (
	"strings"
	"time"
)

// Vault is a per-user file container, independent of any space.
type Vault struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Perm is a single access permission on a vault link or share.
type Perm string

const (
	// PermRead allows listing and downloading files.
	PermRead Perm = "read"
	// PermWrite allows uploading and deleting files.
	PermWrite Perm = "write"
)

// Perms is an ordered permission set.
type Perms []Perm

// NormalizePerms folds raw permission strings to the canonical set.
// Unknown entries and duplicates are dropped.
func NormalizePerms(raw []string) Perms {
	seen := make(map[Perm]bool, len(raw))
	var out Perms
	for _, r := range raw {
		p := Perm(strings.ToLower(strings.TrimSpace(r)))
		if p != PermRead && p != PermWrite {
			continue
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// Has returns true if the set contains p.
func (ps Perms) Has(p Perm) bool {
	for _, x := range ps {
		if x == p {
			return true
		}
	}
	return false
}

// Strings returns the set as plain strings.
func (ps Perms) Strings() []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}

// VaultLink shares a vault into a space with a permission set.
// The link is independent of the vault owner's own access.
type VaultLink struct {
	ID        string    `json:"id"`
	VaultID   string    `json:"vault_id"`
	SpaceID   string    `json:"space_id"`
	Perms     Perms     `json:"perms"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// VaultShare grants a single user access to a vault.
type VaultShare struct {
	ID        string    `json:"id"`
	VaultID   string    `json:"vault_id"`
	GranteeID string    `json:"grantee_id"`
	Perms     Perms     `json:"perms"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
