// Package blob provides local filesystem storage for uploaded file bytes.
// Metadata lives in sqlite; this package only handles the bytes, addressed
// by a path-style key.
package blob

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store manages blob filesystem operations.
// Thread-safe for concurrent operations.
type Store struct {
	basePath string
	mu       sync.RWMutex // Protects file operations
}

// NewStore creates a blob store rooted at basePath.
// Blobs are stored under {basePath}/blobs/.
func NewStore(basePath string) (*Store, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	storagePath := filepath.Join(basePath, "blobs")
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blobs directory: %w", err)
	}

	return &Store{
		basePath: storagePath,
	}, nil
}

// Key builds a blob key from its owner segments and file ID.
// Format: {kind}/{ownerID}/{fileID}.
func Key(kind, ownerID, fileID string) string {
	return kind + "/" + ownerID + "/" + fileID
}

// resolve maps a key to a filesystem path, rejecting keys that would
// escape the storage root.
func (s *Store) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key cannot be empty")
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.basePath, clean), nil
}

// Save writes blob data from r under key, creating parent directories
// as needed. Returns the number of bytes written.
func (s *Store) Save(key string, r io.Reader) (int64, error) {
	path, err := s.resolve(key)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create blob directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create blob file: %w", err)
	}

	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return 0, fmt.Errorf("failed to write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("failed to close blob file: %w", err)
	}

	return n, nil
}

// Open returns a reader over the blob stored under key.
// The caller must close the returned reader.
func (s *Store) Open(key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob not found for %s: %w", key, err)
		}
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

// Exists checks whether a blob exists under key.
func (s *Store) Exists(key string) bool {
	path, err := s.resolve(key)
	if err != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err = os.Stat(path)
	return err == nil
}

// Delete removes the blob stored under key.
// Deleting a missing blob is not an error.
func (s *Store) Delete(key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// Path returns the full filesystem path for a blob key.
// Mainly useful for serving files directly off disk.
func (s *Store) Path(key string) (string, error) {
	return s.resolve(key)
}
