package services

import (
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/jobs-finder/internal/repositories"
	gocache "github.com/patrickmn/go-cache"
	"sync"
	"time"
)

type Dependencies struct {
	Store         repositories.KeyValueStore
	Retriever     ListingsRetriever
	Analytics     AnalyticsClient
	Favorites     FavoritesClient
	Side          *SideChannel
	Bus           EventBus.Bus
	TopCache      *gocache.Cache
	WatchInterval time.Duration
	SeenCapacity  int
}

// Workspace is everything one owner works with: its own slice of the store,
// seen sets, favorites, search session and watch.
type Workspace struct {
	Owner     string
	Seen      *SeenTracker
	Favorites *FavoritesCache
	Session   *SearchSession
	Watcher   *WatchScheduler
}

func NewWorkspace(owner string, deps Dependencies) *Workspace {
	store := repositories.NewScoped(deps.Store, owner)

	seen := NewSeenTracker(store, deps.SeenCapacity)
	session := NewSearchSession(deps.Retriever, deps.Analytics, deps.Side, seen, deps.TopCache)

	return &Workspace{
		Owner:     owner,
		Seen:      seen,
		Favorites: NewFavoritesCache(store, deps.Favorites, deps.Side),
		Session:   session,
		Watcher:   NewWatchScheduler(session, seen, deps.Bus, deps.WatchInterval),
	}
}

type Workspaces struct {
	deps       Dependencies
	mu         sync.Mutex
	workspaces map[string]*Workspace
}

func NewWorkspaces(deps Dependencies) *Workspaces {
	return &Workspaces{deps: deps, workspaces: make(map[string]*Workspace)}
}

func (w *Workspaces) Get(owner string) *Workspace {
	w.mu.Lock()
	defer w.mu.Unlock()

	workspace, ok := w.workspaces[owner]
	if !ok {
		workspace = NewWorkspace(owner, w.deps)
		w.workspaces[owner] = workspace
	}
	return workspace
}

// StopAll stops every running watch.
func (w *Workspaces) StopAll() {
	w.mu.Lock()
	all := make([]*Workspace, 0, len(w.workspaces))
	for _, workspace := range w.workspaces {
		all = append(all, workspace)
	}
	w.mu.Unlock()

	for _, workspace := range all {
		workspace.Watcher.Stop(workspace.Watcher.Current())
	}
}
