package display

import (
	"context"
	"sync"
	"time"

	"led-display/internal/models"
)

// minSlideTime guards against zero/negative durations in stored documents.
const minSlideTime = 1 * time.Second

// Rotator cycles through the active slides of a document in snapshot
// sequence order, honoring each slide's duration. SetSlides may be called
// at any time (sync applied, force-reload); the rotator stays on the current
// slide when it survives the swap instead of jumping back to the start.
type Rotator struct {
	mu     sync.Mutex
	slides []models.Slide
	idx    int
}

func NewRotator() *Rotator {
	return &Rotator{}
}

// SetSlides replaces the rotation set with the active slides of snap.
func (r *Rotator) SetSlides(snap *models.Snapshot) {
	var active []models.Slide
	for _, s := range snap.Slides {
		if s.Active {
			active = append(active, s)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var currentID string
	if r.idx < len(r.slides) {
		currentID = r.slides[r.idx].ID
	}

	r.slides = active
	r.idx = 0
	for i, s := range active {
		if s.ID == currentID {
			r.idx = i
			break
		}
	}
}

// Current returns the slide under rotation, false when nothing is active.
func (r *Rotator) Current() (models.Slide, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.slides) == 0 {
		return models.Slide{}, false
	}
	if r.idx >= len(r.slides) {
		r.idx = 0
	}
	return r.slides[r.idx], true
}

// Advance moves to the next slide and returns it.
func (r *Rotator) Advance() (models.Slide, bool) {
	r.mu.Lock()
	if len(r.slides) == 0 {
		r.mu.Unlock()
		return models.Slide{}, false
	}
	r.idx = (r.idx + 1) % len(r.slides)
	r.mu.Unlock()
	return r.Current()
}

// Run renders the current slide, waits out its duration, advances, and
// repeats until the context ends. With no active slides it re-checks once a
// second so a later sync can bring the rotation back.
func (r *Rotator) Run(ctx context.Context, render func(models.Slide)) {
	for {
		slide, ok := r.Current()
		wait := minSlideTime
		if ok {
			render(slide)
			if d := time.Duration(slide.Duration * float64(time.Second)); d > minSlideTime {
				wait = d
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		if ok {
			r.Advance()
		}
	}
}
