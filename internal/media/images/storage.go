// Package images stores chart-set cover art and computes the BlurHash
// placeholders clients render while covers load.
package images

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage manages cover files on disk, one per chart set, keyed by set ID.
// Safe for concurrent use.
type Storage struct {
	basePath string
	mu       sync.RWMutex
}

// NewStorage creates cover storage under {dataDir}/covers.
func NewStorage(dataDir string) (*Storage, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}

	basePath := filepath.Join(dataDir, "covers")
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create covers directory: %w", err)
	}

	return &Storage{basePath: basePath}, nil
}

// Save stores cover data for a set.
func (s *Storage) Save(setID string, data []byte) error {
	if setID == "" {
		return fmt.Errorf("set ID cannot be empty")
	}
	if len(data) == 0 {
		return fmt.Errorf("cover data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.Path(setID), data, 0o644); err != nil {
		return fmt.Errorf("write cover file: %w", err)
	}
	return nil
}

// Get retrieves cover data for a set.
func (s *Storage) Get(setID string) ([]byte, error) {
	if setID == "" {
		return nil, fmt.Errorf("set ID cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(setID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("cover not found for %s: %w", setID, err)
		}
		return nil, fmt.Errorf("read cover file: %w", err)
	}
	return data, nil
}

// Exists reports whether a cover is stored for the set.
func (s *Storage) Exists(setID string) bool {
	if setID == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.Path(setID))
	return err == nil
}

// Delete removes a set's cover. Deleting a missing cover is not an error.
func (s *Storage) Delete(setID string) error {
	if setID == "" {
		return fmt.Errorf("set ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(setID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete cover file: %w", err)
	}
	return nil
}

// Hash returns the hex SHA256 of the stored cover, used as an ETag.
func (s *Storage) Hash(setID string) (string, error) {
	data, err := s.Get(setID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}

// Path returns the filesystem path of a set's cover.
func (s *Storage) Path(setID string) string {
	return filepath.Join(s.basePath, setID+".jpg")
}
