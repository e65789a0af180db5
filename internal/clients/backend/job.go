package backend

import (
	"encoding/json"
	"fmt"
	"time"
)

type Job struct {
	ID             string       `json:"id"`
	Source         string       `json:"source"`
	Title          string       `json:"title"`
	Company        string       `json:"company"`
	Location       string       `json:"location"`
	Canton         string       `json:"canton"`
	URL            string       `json:"url"`
	PostedAt       FlexibleTime `json:"posted_at"`
	EmploymentType string       `json:"employment_type"`
	Salary         string       `json:"salary"`
	Snippet        string       `json:"snippet"`
}

type searchResponse struct {
	Items   json.RawMessage `json:"items"`
	Total   int             `json:"total"`
	Sources map[string]int  `json:"sources"`
}

type FavoriteIn struct {
	JobID    string `json:"job_id"`
	Source   string `json:"source"`
	Title    string `json:"title"`
	Company  string `json:"company,omitempty"`
	Location string `json:"location,omitempty"`
	Canton   string `json:"canton,omitempty"`
	URL      string `json:"url"`
}

type Favorite struct {
	ID        string       `json:"id"`
	JobID     string       `json:"job_id"`
	Source    string       `json:"source"`
	Title     string       `json:"title"`
	Company   string       `json:"company"`
	Location  string       `json:"location"`
	Canton    string       `json:"canton"`
	URL       string       `json:"url"`
	CreatedAt FlexibleTime `json:"created_at"`
}

type TopSearch struct {
	Keyword string `json:"keyword"`
	Canton  string `json:"canton"`
	Count   int    `json:"count"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// FlexibleTime accepts the timestamp formats the backend emits, with or without a zone.
// null and unparsable values leave it zero.
type FlexibleTime struct {
	time.Time
}

func (ft *FlexibleTime) UnmarshalJSON(b []byte) error {
	var str *string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("parsing time %s: %v", string(b), err)
	}
	if str == nil || *str == "" {
		return nil
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, *str); err == nil {
			ft.Time = t
			return nil
		}
	}
	return nil
}
