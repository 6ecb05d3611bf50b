package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"led-display/internal/models"
)

func sampleSnapshot() *models.Snapshot {
	return models.NewSnapshot([]models.Slide{{
		ID: "slide-1", Name: "Welcome", Type: models.SlideText,
		Duration: 10, Active: true,
		Data: map[string]any{"body": "Hello", "nested": map[string]any{"k": "v"}},
	}})
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.SnapshotRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestDBStoreRoundTrip(t *testing.T) {
	st := NewDBStore(openTestDB(t))
	ctx := context.Background()

	// 1. Empty store reads as absent, not as an error.
	snap, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load empty: %v", err)
	}
	if snap != nil {
		t.Fatal("empty store returned a snapshot")
	}

	// 2. Save then load preserves the document, payload shapes included.
	want := sampleSnapshot()
	if err := st.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || len(got.Slides) != 1 {
		t.Fatalf("Load returned %+v", got)
	}
	if got.Slides[0].Data["body"] != "Hello" {
		t.Errorf("payload body = %v", got.Slides[0].Data["body"])
	}
	nested, ok := got.Slides[0].Data["nested"].(map[string]any)
	if !ok || nested["k"] != "v" {
		t.Errorf("nested payload not preserved: %v", got.Slides[0].Data["nested"])
	}

	// 3. A second save overwrites the singleton row rather than growing it.
	want.Slides[0].Name = "Updated"
	if err := st.Save(ctx, want); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	got, err = st.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Slides[0].Name != "Updated" {
		t.Errorf("overwrite not applied, name = %q", got.Slides[0].Name)
	}
}

func TestDBStoreMalformedDocumentReadsAsEmpty(t *testing.T) {
	db := openTestDB(t)
	st := NewDBStore(db)

	rec := models.SnapshotRecord{ID: 1, Document: "{not json"}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatal(err)
	}

	snap, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("malformed document surfaced an error: %v", err)
	}
	if snap != nil {
		t.Fatal("malformed document decoded to a snapshot")
	}
}

func TestLocalStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "display", "snapshot.json")
	st := NewLocalStore(path)
	ctx := context.Background()

	snap, err := st.Load(ctx)
	if err != nil || snap != nil {
		t.Fatalf("missing file: snap=%v err=%v, want nil,nil", snap, err)
	}

	want := sampleSnapshot()
	if err := st.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// No temp file left behind after the rename.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file not cleaned up by rename")
	}

	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || got.Slides[0].Name != "Welcome" {
		t.Fatalf("round trip returned %+v", got)
	}
}

func TestLocalStoreMalformedFileReadsAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}

	st := NewLocalStore(path)
	snap, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("malformed file surfaced an error: %v", err)
	}
	if snap != nil {
		t.Fatal("malformed file decoded to a snapshot")
	}
}
