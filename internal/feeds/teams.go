package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// TeamMetric is one team's row from the metrics feed, shared by the
// current-escalations, team-comparison and graph slides.
type TeamMetric struct {
	Team         string  `json:"team"`
	Escalations  int     `json:"escalations"`
	Velocity     float64 `json:"velocity"`
	Satisfaction float64 `json:"satisfaction"`
}

// NewTeamsFeed builds the team metrics feed.
func NewTeamsFeed(url, token string, enabled bool) Feed {
	return Feed{
		Key:     "teams",
		Enabled: enabled && url != "",
		Fetch: func(ctx context.Context) (any, error) {
			return fetchTeamMetrics(ctx, url, token)
		},
		Transform: func(raw any) any {
			metrics, _ := raw.([]TeamMetric)
			total := 0
			for _, m := range metrics {
				total += m.Escalations
			}
			if metrics == nil {
				metrics = []TeamMetric{}
			}
			return map[string]any{
				"teams":            metrics,
				"totalEscalations": total,
			}
		},
	}
}

func fetchTeamMetrics(ctx context.Context, url, token string) ([]TeamMetric, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result struct {
		Teams []TeamMetric `json:"teams"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result.Teams, nil
}
