package models

import (
	"github.com/samber/lo"
	"sort"
	"strings"
)

// FavoriteEntry is a snapshot of a listing taken when it was favorited.
type FavoriteEntry struct {
	ListingID  string `json:"job_id"`
	Source     Source `json:"source"`
	Title      string `json:"title"`
	Company    string `json:"company,omitempty"`
	Location   string `json:"location,omitempty"`
	RegionCode string `json:"canton,omitempty"`
	URL        string `json:"url"`
}

func NewFavoriteEntry(listing Listing) FavoriteEntry {
	return FavoriteEntry{
		ListingID:  listing.Key(),
		Source:     listing.Source,
		Title:      listing.Title,
		Company:    listing.Company,
		Location:   listing.Location,
		RegionCode: listing.RegionCode,
		URL:        listing.URL,
	}
}

// Listing rebuilds the listing the snapshot was taken from, as far as the snapshot knows it.
func (e FavoriteEntry) Listing() Listing {
	return Listing{
		ID:         e.ListingID,
		Source:     e.Source,
		Title:      e.Title,
		Company:    e.Company,
		Location:   e.Location,
		RegionCode: e.RegionCode,
		URL:        e.URL,
	}
}

// FavoritesCollection maps listing keys to their snapshots.
type FavoritesCollection map[string]FavoriteEntry

func (c FavoritesCollection) Clone() FavoritesCollection {
	clone := make(FavoritesCollection, len(c))
	for id, entry := range c {
		clone[id] = entry
	}
	return clone
}

func (c FavoritesCollection) Contains(listingID string) bool {
	_, ok := c[listingID]
	return ok
}

// Sorted returns the entries ordered by title, then by listing id.
func (c FavoritesCollection) Sorted() []FavoriteEntry {
	entries := lo.Values(c)
	sort.Slice(entries, func(i, j int) bool {
		left, right := strings.ToLower(entries[i].Title), strings.ToLower(entries[j].Title)
		if left != right {
			return left < right
		}
		return entries[i].ListingID < entries[j].ListingID
	})
	return entries
}
