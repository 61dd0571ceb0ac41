package domain

import "time"

// FileOwnerKind distinguishes which container a stored file belongs to.
type FileOwnerKind string

const (
	// FileOwnerVault marks a file stored in a user vault.
	FileOwnerVault FileOwnerKind = "vault"
	// FileOwnerSpace marks a file stored in a space.
	FileOwnerSpace FileOwnerKind = "space"
)

// File is the metadata record for a stored blob. The bytes themselves
// live in the blob store under Path.
type File struct {
	ID         string        `json:"id"`
	OwnerKind  FileOwnerKind `json:"owner_kind"`
	OwnerID    string        `json:"owner_id"` // Vault ID or space ID
	Name       string        `json:"name"`
	Path       string        `json:"path"` // Blob store key
	Size       int64         `json:"size"`
	MimeType   string        `json:"mime_type,omitempty"`
	Blurhash   string        `json:"blurhash,omitempty"` // Preview for image files
	UploadedBy string        `json:"uploaded_by"`
	CreatedAt  time.Time     `json:"created_at"`
}

// IsImage returns true if the file's mime type is an image type.
func (f *File) IsImage() bool {
	return len(f.MimeType) > 6 && f.MimeType[:6] == "image/"
}
