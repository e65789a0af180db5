package models

import (
	"net/url"
	"strings"
)

// FilterKey identifies one search for change tracking and analytics.
// An empty Region means "no region filter".
type FilterKey struct {
	Query  string `json:"query"`
	Region string `json:"region"`
}

func NewFilterKey(query, region string) FilterKey {
	return FilterKey{Query: strings.TrimSpace(query), Region: strings.TrimSpace(region)}
}

func (k FilterKey) IsEmpty() bool {
	return k.Query == ""
}

func (k FilterKey) String() string {
	return url.QueryEscape(k.Query) + "|" + url.QueryEscape(k.Region)
}
