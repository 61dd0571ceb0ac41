package domain

import "time"

// InviteStatus is the derived lifecycle state of an invite.
type InviteStatus string

const (
	// InviteActive means the invite can still be redeemed.
	InviteActive InviteStatus = "active"
	// InviteExpired means the invite passed its expiry. Terminal.
	InviteExpired InviteStatus = "expired"
	// InviteExhausted means the invite hit its use limit. Terminal.
	InviteExhausted InviteStatus = "exhausted"
)

// Invite is a redeemable code granting membership in a space.
// Invites are never deleted; once expired or exhausted they stay as
// terminal records.
type Invite struct {
	ID        string     `json:"id"`
	SpaceID   string     `json:"space_id"`
	Code      string     `json:"code"`                 // Unique, URL-safe invite code
	CreatedBy string     `json:"created_by"`           // Member user ID who created the invite
	ExpiresAt *time.Time `json:"expires_at,omitempty"` // nil = never expires
	MaxUses   *int       `json:"max_uses,omitempty"`   // nil = unlimited
	Uses      int        `json:"uses"`                 // Monotonically increasing
	CreatedAt time.Time  `json:"created_at"`
}

// IsExpired returns true if the invite has passed its expiration time.
func (i *Invite) IsExpired() bool {
	return i.ExpiresAt != nil && time.Now().After(*i.ExpiresAt)
}

// IsExhausted returns true if the invite has reached its use limit.
func (i *Invite) IsExhausted() bool {
	return i.MaxUses != nil && i.Uses >= *i.MaxUses
}

// IsRedeemable returns true if the invite can still be redeemed.
func (i *Invite) IsRedeemable() bool {
	return !i.IsExpired() && !i.IsExhausted()
}

// Status returns the invite's lifecycle state. Expiry wins over
// exhaustion when both hold.
func (i *Invite) Status() InviteStatus {
	if i.IsExpired() {
		return InviteExpired
	}
	if i.IsExhausted() {
		return InviteExhausted
	}
	return InviteActive
}
