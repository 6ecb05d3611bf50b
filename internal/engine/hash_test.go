package engine

import (
	"testing"

	"led-display/internal/models"
)

func sampleSlides() []models.Slide {
	return []models.Slide{
		{
			ID:       "01HZX0000000000000000000A1",
			Name:     "Welcome",
			Type:     models.SlideText,
			Duration: 10,
			Active:   true,
			Data:     map[string]any{"body": "Hello", "color": "#fff"},
		},
		{
			ID:       "01HZX0000000000000000000A2",
			Name:     "Birthdays",
			Type:     models.SlideEvent,
			Duration: 12,
			Active:   false,
			Data:     map[string]any{"category": "birthday", "events": []any{}},
		},
	}
}

func TestHashDeterministic(t *testing.T) {
	a := sampleSlides()
	b := sampleSlides()

	// Same content built twice must digest identically, and repeated calls
	// on the same value must as well.
	if HashSlides(a) != HashSlides(a) {
		t.Fatal("hash not stable across repeated calls")
	}
	if HashSlides(a) != HashSlides(b) {
		t.Fatal("hash differs for structurally equal slide sets")
	}
}

func TestHashIgnoresKeyInsertionOrder(t *testing.T) {
	a := sampleSlides()
	b := sampleSlides()

	// Rebuild a payload map in reverse insertion order.
	reversed := map[string]any{}
	reversed["color"] = "#fff"
	reversed["body"] = "Hello"
	b[0].Data = reversed

	if HashSlides(a) != HashSlides(b) {
		t.Error("key insertion order changed the hash")
	}
}

func TestHashSensitiveToSemanticChange(t *testing.T) {
	base := HashSlides(sampleSlides())

	// Toggling active on any slide must move the hash.
	toggled := sampleSlides()
	toggled[1].Active = true
	if HashSlides(toggled) == base {
		t.Error("active toggle did not change the hash")
	}

	// Duration changes are semantic.
	slower := sampleSlides()
	slower[0].Duration = 30
	if HashSlides(slower) == base {
		t.Error("duration change did not change the hash")
	}

	// Sequence order is display order, also semantic.
	swapped := sampleSlides()
	swapped[0], swapped[1] = swapped[1], swapped[0]
	if HashSlides(swapped) == base {
		t.Error("slide reordering did not change the hash")
	}
}

func TestHashExcludesVolatileFields(t *testing.T) {
	base := HashSlides(sampleSlides())

	refetched := sampleSlides()
	refetched[1].Data["lastFetched"] = "2026-08-23T10:00:00Z"
	if HashSlides(refetched) != base {
		t.Error("volatile lastFetched field changed the hash")
	}

	// Volatile keys are stripped at any nesting depth.
	nested := sampleSlides()
	nested[1].Data["meta"] = map[string]any{"fetchedAt": "2026-08-23T10:00:00Z"}
	withEmptyMeta := sampleSlides()
	withEmptyMeta[1].Data["meta"] = map[string]any{}
	if HashSlides(nested) != HashSlides(withEmptyMeta) {
		t.Error("nested volatile field changed the hash")
	}
}
