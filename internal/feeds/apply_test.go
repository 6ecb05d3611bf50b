package feeds

import (
	"testing"

	"led-display/internal/models"
)

func feedTestSnapshot() *models.Snapshot {
	return models.NewSnapshot([]models.Slide{
		{
			ID: "s-text", Name: "Notice", Type: models.SlideText,
			Duration: 8, Active: true,
			Data: map[string]any{"body": "untouched"},
		},
		{
			ID: "s-bday", Name: "Birthdays", Type: models.SlideEvent,
			Duration: 12, Active: true,
			Data: map[string]any{"category": "birthday", "events": []any{}},
		},
		{
			ID: "s-esc", Name: "Current Escalations", Type: models.SlideEscalations,
			Duration: 15, Active: true,
			Data: map[string]any{},
		},
		{
			ID: "s-graph", Name: "Team Graph", Type: models.SlideGraph,
			Duration: 15, Active: true,
			Data: map[string]any{},
		},
	})
}

func sampleFeedData() map[string]any {
	return map[string]any{
		"employees": map[string]any{
			"birthdays": []EventEntry{
				{Name: "Ada", Date: "2026-08-30"},
			},
			"anniversaries": []EventEntry{},
		},
		"teams": map[string]any{
			"teams": []TeamMetric{
				{Team: "Platform", Escalations: 3, Velocity: 42},
				{Team: "Mobile", Escalations: 1, Velocity: 38},
			},
			"totalEscalations": 4,
		},
	}
}

func TestApplyFeedDataTargetsDependentSlides(t *testing.T) {
	snap := feedTestSnapshot()

	if !ApplyFeedData(snap, sampleFeedData()) {
		t.Fatal("fresh feed data reported no change")
	}

	// 1. Unrelated slides never move.
	text, _ := snap.SlideByID("s-text")
	if text.Data["body"] != "untouched" {
		t.Errorf("text slide mutated: %v", text.Data)
	}
	if _, ok := text.Data["lastFetched"]; ok {
		t.Error("text slide got a fetch stamp")
	}

	// 2. The birthday slide received its roster events.
	bday, _ := snap.SlideByID("s-bday")
	events, ok := bday.Data["events"].([]EventEntry)
	if !ok || len(events) != 1 || events[0].Name != "Ada" {
		t.Errorf("birthday events = %v", bday.Data["events"])
	}
	if bday.Data["lastFetched"] == nil {
		t.Error("birthday slide missing fetch stamp")
	}

	// 3. Escalations got the team metrics and the total.
	esc, _ := snap.SlideByID("s-esc")
	if esc.Data["totalEscalations"] != 4 {
		t.Errorf("totalEscalations = %v", esc.Data["totalEscalations"])
	}

	// 4. The graph slide gets label/value points.
	graph, _ := snap.SlideByID("s-graph")
	points, ok := graph.Data["points"].([]map[string]any)
	if !ok || len(points) != 2 {
		t.Fatalf("graph points = %v", graph.Data["points"])
	}
	if points[0]["label"] != "Platform" || points[0]["value"] != float64(42) {
		t.Errorf("first point = %v", points[0])
	}
}

func TestApplyFeedDataIdempotentOnRefetch(t *testing.T) {
	snap := feedTestSnapshot()
	data := sampleFeedData()

	if !ApplyFeedData(snap, data) {
		t.Fatal("first apply reported no change")
	}
	// The same payload again only moves the volatile fetch stamp, which is
	// excluded from hashing: no semantic change.
	if ApplyFeedData(snap, data) {
		t.Error("identical re-fetch reported a change")
	}
}

func TestApplyFeedDataPartialPayload(t *testing.T) {
	snap := feedTestSnapshot()

	// Only the teams feed delivered; event slides stay as they were.
	data := map[string]any{"teams": sampleFeedData()["teams"]}
	if !ApplyFeedData(snap, data) {
		t.Fatal("teams-only payload reported no change")
	}

	bday, _ := snap.SlideByID("s-bday")
	if _, ok := bday.Data["lastFetched"]; ok {
		t.Error("event slide stamped without roster data")
	}
	esc, _ := snap.SlideByID("s-esc")
	if esc.Data["teams"] == nil {
		t.Error("escalations slide not updated")
	}
}
