package store

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"led-display/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBStore keeps the whole document in the singleton snapshot_state row (ID=1).
type DBStore struct {
	db *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) Load(ctx context.Context) (*models.Snapshot, error) {
	var rec models.SnapshotRecord
	err := s.db.WithContext(ctx).First(&rec, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(rec.Document), &snap); err != nil {
		// Malformed document == no document. Reconciliation re-seeds defaults.
		log.Printf("⚠️ Stored snapshot is malformed, treating as empty: %v", err)
		return nil, nil
	}
	if snap.Slides == nil {
		log.Printf("⚠️ Stored snapshot has no slides field, treating as empty")
		return nil, nil
	}
	return &snap, nil
}

func (s *DBStore) Save(ctx context.Context, snap *models.Snapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	rec := models.SnapshotRecord{
		ID:        1,
		Document:  string(doc),
		UpdatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&rec).Error
}
