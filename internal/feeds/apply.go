package feeds

import (
	"encoding/json"
	"time"

	"led-display/internal/engine"
	"led-display/internal/models"
)

// ApplyFeedData merges polled feed payloads into the dependent slides of a
// document, leaving unrelated slides untouched. The lastFetched stamp is
// volatile bookkeeping and excluded from content hashing, so an unchanged
// re-fetch reports no change. Returns whether any slide semantically moved.
func ApplyFeedData(snap *models.Snapshot, data map[string]any) bool {
	before := engine.HashSlides(snap.Slides)
	stamp := time.Now().UTC().Format(time.RFC3339)

	roster, _ := data["employees"].(map[string]any)
	teams, _ := data["teams"].(map[string]any)

	for i := range snap.Slides {
		s := &snap.Slides[i]
		switch s.Type {
		case models.SlideEvent:
			if roster == nil {
				continue
			}
			var key string
			switch s.Data["category"] {
			case "birthday":
				key = "birthdays"
			case "anniversary":
				key = "anniversaries"
			default:
				continue
			}
			if events, ok := roster[key]; ok {
				s.Data["events"] = events
				s.Data["lastFetched"] = stamp
			}

		case models.SlideEscalations:
			if teams == nil {
				continue
			}
			s.Data["teams"] = teams["teams"]
			s.Data["totalEscalations"] = teams["totalEscalations"]
			s.Data["lastFetched"] = stamp

		case models.SlideTeamComparison:
			if teams == nil {
				continue
			}
			s.Data["teams"] = teams["teams"]
			s.Data["lastFetched"] = stamp

		case models.SlideGraph:
			if teams == nil {
				continue
			}
			s.Data["points"] = graphPoints(teams["teams"])
			s.Data["lastFetched"] = stamp
		}
	}

	return engine.HashSlides(snap.Slides) != before
}

// graphPoints projects team metrics onto label/value pairs for the graph
// slide. The value may be []TeamMetric (fresh from the poller) or the
// generic form it takes after a JSON round trip, so it goes through JSON
// either way.
func graphPoints(teams any) []map[string]any {
	b, err := json.Marshal(teams)
	if err != nil {
		return []map[string]any{}
	}
	var metrics []TeamMetric
	if err := json.Unmarshal(b, &metrics); err != nil {
		return []map[string]any{}
	}

	points := make([]map[string]any, 0, len(metrics))
	for _, m := range metrics {
		points = append(points, map[string]any{
			"label": m.Team,
			"value": m.Velocity,
		})
	}
	return points
}
