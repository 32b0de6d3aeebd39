// Package images stores uploaded mushroom photos and derives what clients
// need to show them: a normalized JPEG and a BlurHash placeholder.
package images

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/findshroom/findshroom-server/internal/id"
)

// ErrInvalidRef is returned for photo references that are not UUIDs.
var ErrInvalidRef = errors.New("invalid photo reference")

// ErrNotFound is returned when no photo exists for a reference.
var ErrNotFound = errors.New("photo not found")

// Storage manages photo files on disk.
// Thread-safe for concurrent operations.
type Storage struct {
	basePath string
	mu       sync.RWMutex // Protects file operations
}

// NewStorage creates photo storage under {basePath}/photos.
func NewStorage(basePath string) (*Storage, error) {
	return NewStorageWithSubdir(basePath, "photos")
}

// NewStorageWithSubdir creates storage under {basePath}/{subdir}, creating
// the directory if needed.
func NewStorageWithSubdir(basePath, subdir string) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if subdir == "" {
		return nil, fmt.Errorf("subdirectory cannot be empty")
	}

	storagePath := filepath.Join(basePath, subdir)
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", subdir, err)
	}

	return &Storage{basePath: storagePath}, nil
}

// Save writes JPEG data under a photo reference.
func (s *Storage) Save(ref string, jpegData []byte) error {
	if !id.IsPhotoRef(ref) {
		return ErrInvalidRef
	}
	if len(jpegData) == 0 {
		return fmt.Errorf("image data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write to a temp file and rename so readers never see a partial photo.
	path := s.Path(ref)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, jpegData, 0644); err != nil {
		return fmt.Errorf("failed to write photo: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to finalize photo: %w", err)
	}
	return nil
}

// Get reads the photo stored under ref.
func (s *Storage) Get(ref string) ([]byte, error) {
	if !id.IsPhotoRef(ref) {
		return nil, ErrInvalidRef
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(ref))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	return data, nil
}

// Exists reports whether a photo is stored under ref.
func (s *Storage) Exists(ref string) bool {
	if !id.IsPhotoRef(ref) {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.Path(ref))
	return err == nil
}

// Delete removes a photo. A missing photo is not an error.
func (s *Storage) Delete(ref string) error {
	if !id.IsPhotoRef(ref) {
		return ErrInvalidRef
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(ref)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return nil
}

// Hash returns the hex SHA-256 of a stored photo, used as its ETag.
func (s *Storage) Hash(ref string) (string, error) {
	data, err := s.Get(ref)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum), nil
}

// Path returns the file path for a photo reference.
func (s *Storage) Path(ref string) string {
	return filepath.Join(s.basePath, ref+".jpg")
}
