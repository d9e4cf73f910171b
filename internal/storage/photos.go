// Package storage keeps catalog photos on the local filesystem.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

type PhotoStore struct {
	dir string
}

func NewPhotoStore(dataDir string) *PhotoStore {
	return &PhotoStore{dir: filepath.Join(dataDir, "photos")}
}

func (s *PhotoStore) modelPath(modelID uuid.UUID) string {
	return filepath.Join(s.dir, fmt.Sprintf("model_%s.jpg", modelID))
}

// SaveModelPhoto writes the image for a product family, replacing any
// previous one, and returns the stored path.
func (s *PhotoStore) SaveModelPhoto(modelID uuid.UUID, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create photo dir: %w", err)
	}
	path := s.modelPath(modelID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	return path, nil
}

// DeleteModelPhoto removes the family's image; missing files are fine.
func (s *PhotoStore) DeleteModelPhoto(modelID uuid.UUID) error {
	err := os.Remove(s.modelPath(modelID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

// WelcomePath returns the greeting image's path and whether it exists.
func (s *PhotoStore) WelcomePath() (string, bool) {
	path := filepath.Join(s.dir, "welcome.jpg")
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}
