package models

import (
	"encoding/json"
	"time"
)

// SnapshotVersion tags the document schema. Single constant for now,
// reserved for migration gating.
const SnapshotVersion = "1"

// Snapshot is the full slideshow document: the unit of persistence and
// synchronization. It is always read and written wholesale, never
// field-patched.
type Snapshot struct {
	Slides          []Slide        `json:"slides"`
	DisplaySettings map[string]any `json:"displaySettings"`
	LastUpdated     time.Time      `json:"lastUpdated"`
	Version         string         `json:"version"`
}

// NewSnapshot builds an empty current-version snapshot.
func NewSnapshot(slides []Slide) *Snapshot {
	return &Snapshot{
		Slides:          slides,
		DisplaySettings: map[string]any{},
		LastUpdated:     time.Now().UTC(),
		Version:         SnapshotVersion,
	}
}

// Clone deep-copies the snapshot. Slide payloads are free-form maps, so the
// copy goes through JSON to avoid aliasing nested values.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		// Snapshot fields are plain JSON-encodable values; this cannot fail
		// for documents we build ourselves.
		cp := *s
		return &cp
	}
	var out Snapshot
	if err := json.Unmarshal(b, &out); err != nil {
		cp := *s
		return &cp
	}
	return &out
}

// SlideByID returns a pointer into Slides for in-place mutation.
func (s *Snapshot) SlideByID(id string) (*Slide, bool) {
	for i := range s.Slides {
		if s.Slides[i].ID == id {
			return &s.Slides[i], true
		}
	}
	return nil, false
}

// RemoveSlide deletes a slide by id, preserving the order of the rest.
// Returns false if the id was not present.
func (s *Snapshot) RemoveSlide(id string) bool {
	for i := range s.Slides {
		if s.Slides[i].ID == id {
			s.Slides = append(s.Slides[:i], s.Slides[i+1:]...)
			return true
		}
	}
	return false
}
