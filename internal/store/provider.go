package store

import (
	"context"
	"fmt"

	"led-display/internal/config"
	"led-display/internal/models"

	"gorm.io/gorm"
)

// SnapshotStore is the thin contract over the durable store. Load returns
// (nil, nil) when no snapshot exists yet; a stored document that fails to
// decode is treated the same way so defaults get seeded instead of a parse
// error propagating upward. Field shapes are preserved verbatim through the
// JSON document; errors propagate to the caller, which owns retry policy.
type SnapshotStore interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snap *models.Snapshot) error
}

// New selects a backend from config. The database backend needs an open
// gorm handle; pass nil for the other providers.
func New(cfg *config.Config, db *gorm.DB) (SnapshotStore, error) {
	switch cfg.Store.Provider {
	case "db", "":
		if db == nil {
			return nil, fmt.Errorf("store: db provider selected but no database handle given")
		}
		return NewDBStore(db), nil
	case "local":
		return NewLocalStore(cfg.Store.LocalPath), nil
	case "s3":
		return NewS3Store(cfg), nil
	default:
		return nil, fmt.Errorf("store: unknown provider %q", cfg.Store.Provider)
	}
}
