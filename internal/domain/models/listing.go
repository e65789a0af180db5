package models

import (
	"strings"
	"time"
)

type Source string

const (
	SourceIndeed Source = "indeed"
	SourceRAV    Source = "rav"
)

// Listing is a single job posting as returned by the search endpoint.
type Listing struct {
	ID             string
	Source         Source
	Title          string
	Company        string
	Location       string
	RegionCode     string
	URL            string
	PostedAt       time.Time
	EmploymentType string
	Salary         string
	Snippet        string
}

// Key is the identity of the listing across providers: "<source>:<provider id>".
// Ids that already carry their source prefix are returned unchanged.
func (l Listing) Key() string {
	if l.Source == "" {
		return l.ID
	}
	prefix := string(l.Source) + ":"
	if strings.HasPrefix(l.ID, prefix) {
		return l.ID
	}
	return prefix + l.ID
}

func ListingKeys(listings []Listing) []string {
	keys := make([]string, 0, len(listings))
	for _, listing := range listings {
		keys = append(keys, listing.Key())
	}
	return keys
}
