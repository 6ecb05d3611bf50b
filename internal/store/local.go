package store

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"led-display/internal/models"
)

// LocalStore persists the document as a JSON file. Writes go to a temp file
// first and are renamed into place, so readers never observe a torn write.
type LocalStore struct {
	path string
}

func NewLocalStore(path string) *LocalStore {
	_ = os.MkdirAll(filepath.Dir(path), 0755)
	return &LocalStore{path: path}
}

func (s *LocalStore) Load(ctx context.Context) (*models.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("⚠️ Snapshot file %s is malformed, treating as empty: %v", s.path, err)
		return nil, nil
	}
	if snap.Slides == nil {
		log.Printf("⚠️ Snapshot file %s has no slides field, treating as empty", s.path)
		return nil, nil
	}
	return &snap, nil
}

func (s *LocalStore) Save(ctx context.Context, snap *models.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	// Rename to final file (Atomic)
	return os.Rename(tmp, s.path)
}
