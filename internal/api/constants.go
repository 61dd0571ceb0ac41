package api

// API limits and constants.
const (
	// MaxUploadSize is the maximum allowed size for file uploads (10 MB).
	MaxUploadSize = 10 << 20
)
