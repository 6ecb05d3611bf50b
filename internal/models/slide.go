package models

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// SlideType discriminates the payload shape carried in Slide.Data.
type SlideType string

const (
	SlideImage          SlideType = "image"
	SlideVideo          SlideType = "video"
	SlideNews           SlideType = "news"
	SlideEvent          SlideType = "event"
	SlideEscalations    SlideType = "current-escalations"
	SlideTeamComparison SlideType = "team-comparison"
	SlideGraph          SlideType = "graph"
	SlideText           SlideType = "text"
)

// DataSource records where a slide's content came from. Provenance only,
// it does not alter behavior.
type DataSource string

const (
	SourceManual    DataSource = "manual"
	SourceAPI       DataSource = "api"
	SourceFile      DataSource = "file"
	SourceAutomated DataSource = "automated"
)

// Slide is one entry of the slideshow document. Sequence order within a
// snapshot is the display order.
type Slide struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       SlideType      `json:"type"`
	DataSource DataSource     `json:"dataSource"`
	Duration   float64        `json:"duration"` // seconds; computed from media for video slides
	Active     bool           `json:"active"`
	Data       map[string]any `json:"data"`
}

// NewSlideID returns a fresh unique slide id.
func NewSlideID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// Category returns the singleton category of a slide, or "" for slide types
// that may have many instances (image, video, news, text).
// Event slides split into sub-categories via the "category" data key, so a
// birthday slide and an anniversary slide can coexist.
func (s Slide) Category() string {
	switch s.Type {
	case SlideEvent:
		if c, ok := s.Data["category"].(string); ok && c != "" {
			return "event/" + c
		}
		return "event"
	case SlideEscalations, SlideTeamComparison, SlideGraph:
		return string(s.Type)
	default:
		return ""
	}
}

// IsSingleton reports whether the snapshot should hold exactly one slide of
// this slide's category.
func (s Slide) IsSingleton() bool {
	return s.Category() != ""
}
