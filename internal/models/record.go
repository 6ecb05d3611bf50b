package models

import "time"

// SnapshotRecord is the persisted form of the slideshow document when the
// database store backend is used. There is ONE row in this table (ID=1);
// the whole document lives in the JSON column.
type SnapshotRecord struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Document  string    `gorm:"type:text" json:"document"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the default pluralization
func (SnapshotRecord) TableName() string {
	return "snapshot_state"
}
