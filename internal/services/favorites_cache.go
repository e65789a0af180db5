package services

import (
	"context"
	"encoding/json"
	"github.com/maxaizer/jobs-finder/internal/clients/backend"
	"github.com/maxaizer/jobs-finder/internal/domain/models"
	"github.com/maxaizer/jobs-finder/internal/logger"
	"github.com/maxaizer/jobs-finder/internal/repositories"
	log "github.com/sirupsen/logrus"
	"sync"
)

const favoritesKey = "job_favorites"

type FavoritesClient interface {
	AddFavorite(ctx context.Context, favorite backend.FavoriteIn) error
	RemoveFavoriteByJob(ctx context.Context, jobID string) error
}

// FavoritesCache keeps favorites in the local store. The remote copy is only ever
// written to, in the background; its state never changes the local collection.
type FavoritesCache struct {
	store     repositories.KeyValueStore
	remote    FavoritesClient
	side      *SideChannel
	mu        sync.RWMutex
	favorites models.FavoritesCollection
}

// NewFavoritesCache loads the stored collection. A nil remote disables mirroring.
func NewFavoritesCache(store repositories.KeyValueStore, remote FavoritesClient, side *SideChannel) *FavoritesCache {
	f := &FavoritesCache{store: store, remote: remote, side: side}
	f.LoadLocal()
	return f
}

// LoadLocal rereads the stored collection. Absent or unreadable data yields an empty one.
func (f *FavoritesCache) LoadLocal() models.FavoritesCollection {
	favorites := models.FavoritesCollection{}

	if raw, found := f.store.Get(favoritesKey); found {
		if err := json.Unmarshal([]byte(raw), &favorites); err != nil {
			log.Warnf("ignoring malformed favorites: %v", err)
			favorites = models.FavoritesCollection{}
		}
	}

	f.mu.Lock()
	f.favorites = favorites
	f.mu.Unlock()

	return favorites.Clone()
}

func (f *FavoritesCache) IsFavorite(listingID string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.favorites.Contains(listingID)
}

// Toggle removes the listing if it is a favorite and adds it otherwise.
// The new collection is stored before Toggle returns.
func (f *FavoritesCache) Toggle(listing models.Listing) models.FavoritesCollection {
	f.mu.Lock()

	id := listing.Key()
	next := f.favorites.Clone()

	_, removed := next[id]
	var entry models.FavoriteEntry
	if removed {
		delete(next, id)
	} else {
		entry = models.NewFavoriteEntry(listing)
		next[id] = entry
	}

	f.persist(next)
	f.favorites = next
	f.mu.Unlock()

	if removed {
		f.mirrorRemove(id)
	} else {
		f.mirrorAdd(entry)
	}

	return next.Clone()
}

func (f *FavoritesCache) List() []models.FavoriteEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.favorites.Sorted()
}

func (f *FavoritesCache) persist(favorites models.FavoritesCollection) {
	payload, err := json.Marshal(favorites)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeStore).Errorf("failed to encode favorites: %v", err)
		return
	}
	f.store.Set(favoritesKey, string(payload))
}

func (f *FavoritesCache) mirrorAdd(entry models.FavoriteEntry) {
	if f.remote == nil || f.side == nil {
		return
	}

	favorite := backend.FavoriteIn{
		JobID:    entry.ListingID,
		Source:   string(entry.Source),
		Title:    entry.Title,
		Company:  entry.Company,
		Location: entry.Location,
		Canton:   entry.RegionCode,
		URL:      entry.URL,
	}
	f.side.Submit("favorite_add", func(ctx context.Context) error {
		return f.remote.AddFavorite(ctx, favorite)
	})
}

func (f *FavoritesCache) mirrorRemove(listingID string) {
	if f.remote == nil || f.side == nil {
		return
	}

	f.side.Submit("favorite_remove", func(ctx context.Context) error {
		return f.remote.RemoveFavoriteByJob(ctx, listingID)
	})
}
