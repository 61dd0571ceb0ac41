package domain

import (
	"strings"
	"time"
)

// SpaceRole represents a member's permission level within a space.
type SpaceRole string

const (
	// RoleOwner is the space creator. Exactly one per space, assigned at
	// creation, never removed or demoted.
	RoleOwner SpaceRole = "owner"
	// RoleAdmin grants channel and member management within the space.
	RoleAdmin SpaceRole = "admin"
	// RoleMember grants standard participation.
	RoleMember SpaceRole = "member"
)

// NormalizeRole folds a role string to its canonical lowercase form.
// Returns false if the input is not a known role.
func NormalizeRole(s string) (SpaceRole, bool) {
	switch SpaceRole(strings.ToLower(strings.TrimSpace(s))) {
	case RoleOwner:
		return RoleOwner, true
	case RoleAdmin:
		return RoleAdmin, true
	case RoleMember:
		return RoleMember, true
	}
	return "", false
}

// IsOwnerOrAdmin returns true for the roles that may manage a space.
func (r SpaceRole) IsOwnerOrAdmin() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Space is a collaboration container with members, channels, and files.
type Space struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IconPath  string    `json:"icon_path,omitempty"`
	OwnerID   string    `json:"owner_id"` // Immutable once set
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Membership associates a user with a space and a role.
// There is exactly one membership row per (space, user) pair.
type Membership struct {
	ID        string    `json:"id"`
	SpaceID   string    `json:"space_id"`
	UserID    string    `json:"user_id"`
	Role      SpaceRole `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IsOwner returns true if this membership holds the owner role.
func (m *Membership) IsOwner() bool {
	return m.Role == RoleOwner
}
