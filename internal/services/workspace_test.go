package services

import (
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/jobs-finder/internal/domain/models"
	"github.com/maxaizer/jobs-finder/internal/notifier"
	"github.com/maxaizer/jobs-finder/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func newTestWorkspaces(store repositories.KeyValueStore) *Workspaces {
	return NewWorkspaces(Dependencies{
		Store:         store,
		Retriever:     returnListings(listing(models.SourceIndeed, "1", "Go")),
		Bus:           EventBus.New(),
		WatchInterval: time.Hour,
	})
}

func Test_Workspaces_Get_ShouldReturnSameWorkspaceForOwner(t *testing.T) {
	workspaces := newTestWorkspaces(repositories.NewMemoryData())

	assert.Same(t, workspaces.Get("chat1"), workspaces.Get("chat1"))
	assert.NotSame(t, workspaces.Get("chat1"), workspaces.Get("chat2"))
}

func Test_Workspaces_ShouldIsolateOwnersInSharedStore(t *testing.T) {
	store := repositories.NewMemoryData()
	workspaces := newTestWorkspaces(store)

	first := workspaces.Get("chat1")
	second := workspaces.Get("chat2")

	first.Favorites.Toggle(listing(models.SourceIndeed, "1", "Go"))
	first.Seen.Store(first.Seen.KeyFor("golang", ""), []string{"indeed:1"})

	assert.False(t, second.Favorites.IsFavorite("indeed:1"))
	assert.Equal(t, []string{"indeed:1"}, second.Seen.DiffNew(second.Seen.KeyFor("golang", ""), []string{"indeed:1"}))

	_, found := store.Get("chat1:job_favorites")
	assert.True(t, found)
}

func Test_Workspaces_StopAll_ShouldStopRunningWatches(t *testing.T) {
	workspaces := newTestWorkspaces(repositories.NewMemoryData())

	watch, err := workspaces.Get("chat1").Watcher.Start("chat1", staticFilter("golang", ""),
		newMockHost(notifier.PermissionGranted))
	require.NoError(t, err)
	workspaces.Get("chat2")

	workspaces.StopAll()

	assert.False(t, watch.Active())
	assert.Nil(t, workspaces.Get("chat1").Watcher.Current())
}
