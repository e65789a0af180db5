package models

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func Test_ListingKey_WhenIdHasNoPrefix_ShouldNamespaceBySource(t *testing.T) {
	assert.Equal(t, "indeed:42", Listing{ID: "42", Source: SourceIndeed}.Key())
	assert.Equal(t, "rav:42", Listing{ID: "42", Source: SourceRAV}.Key())
	assert.NotEqual(t, Listing{ID: "42", Source: SourceIndeed}.Key(), Listing{ID: "42", Source: SourceRAV}.Key())
}

func Test_ListingKey_WhenIdAlreadyPrefixed_ShouldKeepIt(t *testing.T) {
	assert.Equal(t, "indeed:42", Listing{ID: "indeed:42", Source: SourceIndeed}.Key())
	assert.Equal(t, "42", Listing{ID: "42"}.Key())
}

func Test_FilterKey_ShouldTrimAndPreserveCase(t *testing.T) {
	key := NewFilterKey("  Nurse ", " ZH")
	assert.Equal(t, FilterKey{Query: "Nurse", Region: "ZH"}, key)
	assert.NotEqual(t, NewFilterKey("nurse", ""), NewFilterKey("nurse", "ZH"))
	assert.NotEqual(t, NewFilterKey("nurse", "ZH").String(), NewFilterKey("nurse", "").String())
	assert.NotEqual(t, NewFilterKey("a|b", "").String(), NewFilterKey("a", "b").String())
	assert.True(t, NewFilterKey("   ", "ZH").IsEmpty())
}

func Test_FavoritesCollection_Sorted_ShouldOrderByTitle(t *testing.T) {
	collection := FavoritesCollection{
		"rav:2":    {ListingID: "rav:2", Title: "Welder"},
		"indeed:1": {ListingID: "indeed:1", Title: "architect"},
		"indeed:3": {ListingID: "indeed:3", Title: "Baker"},
	}

	sorted := collection.Sorted()

	assert.Equal(t, []string{"indeed:1", "indeed:3", "rav:2"},
		[]string{sorted[0].ListingID, sorted[1].ListingID, sorted[2].ListingID})
}

func Test_FavoriteEntry_Listing_ShouldKeepKey(t *testing.T) {
	listing := Listing{ID: "4411", Source: SourceRAV, Title: "Entwickler", RegionCode: "BE", URL: "https://job-room.ch/4411"}

	restored := NewFavoriteEntry(listing).Listing()

	assert.Equal(t, listing.Key(), restored.Key())
	assert.Equal(t, "BE", restored.RegionCode)
}
