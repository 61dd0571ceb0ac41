package domain

import "time"

// Instance is the singleton record describing this Haven deployment.
// It is created on first boot and updated through the instance API.
type Instance struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	LocalURL    string    `json:"local_url,omitempty"`
	RemoteURL   string    `json:"remote_url,omitempty"`
	HasRootUser bool      `json:"has_root_user"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
