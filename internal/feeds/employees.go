package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// upcomingWindow bounds how far ahead event slides look for birthdays and
// anniversaries.
const upcomingWindow = 14 * 24 * time.Hour

// EventEntry is one roster event as stored on an event slide payload.
type EventEntry struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
	Photo string `json:"photo,omitempty"`
	Date  string `json:"date"` // YYYY-MM-DD of this year's occurrence
	Years int    `json:"years,omitempty"`
}

type employeeRecord struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Photo       string `json:"photo"`
	DateOfBirth string `json:"dateOfBirth"`
	JoinDate    string `json:"joinDate"`
}

// NewEmployeeFeed builds the staff roster feed. The transform groups the
// roster into upcoming birthday and work-anniversary entries for the two
// event slides.
func NewEmployeeFeed(url, token string, enabled bool) Feed {
	return Feed{
		Key:     "employees",
		Enabled: enabled && url != "",
		Fetch: func(ctx context.Context) (any, error) {
			return fetchEmployees(ctx, url, token)
		},
		Transform: func(raw any) any {
			recs, _ := raw.([]employeeRecord)
			return groupRosterEvents(recs, time.Now())
		},
	}
}

func fetchEmployees(ctx context.Context, url, token string) ([]employeeRecord, error) {
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
		Employees []employeeRecord `json:"employees"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result.Employees, nil
}

// groupRosterEvents splits the roster into birthdays and anniversaries
// falling inside the upcoming window, relative to now.
func groupRosterEvents(recs []employeeRecord, now time.Time) map[string]any {
	var birthdays, anniversaries []EventEntry

	for _, r := range recs {
		if occ, ok := nextOccurrence(r.DateOfBirth, now); ok {
			birthdays = append(birthdays, EventEntry{
				Name:  r.Name,
				Title: r.Title,
				Photo: r.Photo,
				Date:  occ.Format("2006-01-02"),
			})
		}
		if occ, ok := nextOccurrence(r.JoinDate, now); ok {
			join, _ := time.Parse("2006-01-02", r.JoinDate)
			years := occ.Year() - join.Year()
			if years > 0 {
				anniversaries = append(anniversaries, EventEntry{
					Name:  r.Name,
					Title: r.Title,
					Photo: r.Photo,
					Date:  occ.Format("2006-01-02"),
					Years: years,
				})
			}
		}
	}

	if birthdays == nil {
		birthdays = []EventEntry{}
	}
	if anniversaries == nil {
		anniversaries = []EventEntry{}
	}
	return map[string]any{
		"birthdays":     birthdays,
		"anniversaries": anniversaries,
	}
}

// nextOccurrence returns this year's (or next year's, if already past)
// anniversary of a YYYY-MM-DD date, when it lands inside the upcoming
// window.
func nextOccurrence(date string, now time.Time) (time.Time, bool) {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, false
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	occ := time.Date(now.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
	if occ.Before(today) {
		occ = occ.AddDate(1, 0, 0)
	}

	if occ.Sub(today) > upcomingWindow {
		return time.Time{}, false
	}
	return occ, true
}
