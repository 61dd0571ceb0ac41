package domain

import "time"

// PresenceStatus is a user's self-reported availability.
type PresenceStatus string

const (
	// PresenceOnline means the user is active.
	PresenceOnline PresenceStatus = "online"
	// PresenceIdle means the user is connected but inactive.
	PresenceIdle PresenceStatus = "idle"
	// PresenceBusy means the user asked not to be disturbed.
	PresenceBusy PresenceStatus = "busy"
	// PresenceOffline is the implicit state once a heartbeat lapses.
	PresenceOffline PresenceStatus = "offline"
)

// ValidPresenceStatus reports whether s is a status a client may set.
// Offline is derived from heartbeat expiry, never set directly.
func ValidPresenceStatus(s PresenceStatus) bool {
	switch s {
	case PresenceOnline, PresenceIdle, PresenceBusy:
		return true
	}
	return false
}

// Presence is a user's current availability, kept alive by heartbeats.
type Presence struct {
	UserID   string         `json:"user_id"`
	Status   PresenceStatus `json:"status"`
	LastSeen time.Time      `json:"last_seen"`
}

// VoicePresence records a user's occupancy of a voice channel.
type VoicePresence struct {
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	JoinedAt  time.Time `json:"joined_at"`
}
