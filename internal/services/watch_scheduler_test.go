package services

import (
	"context"
	"errors"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/jobs-finder/internal/domain/events"
	"github.com/maxaizer/jobs-finder/internal/domain/models"
	"github.com/maxaizer/jobs-finder/internal/notifier"
	"github.com/maxaizer/jobs-finder/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
	"time"
)

func staticFilter(query, region string) func() models.FilterKey {
	return func() models.FilterKey { return models.NewFilterKey(query, region) }
}

func newTestScheduler(searcher Searcher) (*WatchScheduler, *SeenTracker) {
	seen := NewSeenTracker(repositories.NewMemoryData(), 0)
	return NewWatchScheduler(searcher, seen, EventBus.New(), time.Hour), seen
}

func Test_WatchScheduler_WhenQueryEmpty_ShouldRefuseToStart(t *testing.T) {
	scheduler, _ := newTestScheduler(&fakeSearcher{})

	watch, err := scheduler.Start("chat", staticFilter("  ", "ZH"), newMockHost(notifier.PermissionGranted))

	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Nil(t, watch)
	assert.Nil(t, scheduler.Current())
}

func Test_WatchScheduler_Start_ShouldRequestPermission(t *testing.T) {
	scheduler, _ := newTestScheduler(&fakeSearcher{})
	host := newMockHost(notifier.PermissionDefault)

	watch, err := scheduler.Start("chat", staticFilter("golang", ""), host)
	require.NoError(t, err)
	defer scheduler.Stop(watch)

	assert.Eventually(t, func() bool { return host.requestCount() == 1 }, time.Second, 10*time.Millisecond)
	assert.True(t, watch.Active())
}

func Test_WatchScheduler_Tick_WhenNewListings_ShouldNotifyOnceAndStore(t *testing.T) {
	searcher := &fakeSearcher{fn: func(context.Context, models.FilterKey) ([]models.Listing, error) {
		return []models.Listing{
			listing(models.SourceIndeed, "1", "Go"),
			listing(models.SourceIndeed, "2", "Go"),
			listing(models.SourceRAV, "3", "Go"),
		}, nil
	}}
	scheduler, seen := newTestScheduler(searcher)
	seen.Store(seen.KeyFor("golang", "ZH"), []string{"indeed:1"})

	host := newMockHost(notifier.PermissionGranted)
	watch, err := scheduler.Start("chat", staticFilter("golang", "ZH"), host)
	require.NoError(t, err)
	defer scheduler.Stop(watch)

	scheduler.tick(watch)

	sent := host.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Новые вакансии: 2", sent[0].title)
	assert.Equal(t, "По запросу «golang» (ZH)", sent[0].body)

	scheduler.tick(watch)
	assert.Len(t, host.sent(), 1)
	assert.Empty(t, seen.DiffNew(seen.KeyFor("golang", "ZH"), []string{"indeed:1", "indeed:2", "rav:3"}))
}

func Test_WatchScheduler_Tick_WhenNothingNew_ShouldNotNotify(t *testing.T) {
	searcher := &fakeSearcher{fn: func(context.Context, models.FilterKey) ([]models.Listing, error) {
		return []models.Listing{listing(models.SourceIndeed, "1", "Go")}, nil
	}}
	scheduler, seen := newTestScheduler(searcher)
	seen.Store(seen.KeyFor("golang", ""), []string{"indeed:1", "indeed:0"})

	host := newMockHost(notifier.PermissionGranted)
	watch, err := scheduler.Start("chat", staticFilter("golang", ""), host)
	require.NoError(t, err)
	defer scheduler.Stop(watch)

	scheduler.tick(watch)

	assert.Empty(t, host.sent())
	assert.Equal(t, []string{"indeed:0"}, seen.DiffNew(seen.KeyFor("golang", ""), []string{"indeed:0"}))
}

func Test_WatchScheduler_Tick_WhenPermissionDenied_ShouldStoreWithoutNotifying(t *testing.T) {
	searcher := &fakeSearcher{fn: func(context.Context, models.FilterKey) ([]models.Listing, error) {
		return []models.Listing{listing(models.SourceIndeed, "1", "Go")}, nil
	}}
	scheduler, seen := newTestScheduler(searcher)

	host := newMockHost(notifier.PermissionDenied)
	watch, err := scheduler.Start("chat", staticFilter("golang", ""), host)
	require.NoError(t, err)
	defer scheduler.Stop(watch)

	scheduler.tick(watch)

	assert.Empty(t, host.sent())
	assert.Empty(t, seen.DiffNew(seen.KeyFor("golang", ""), []string{"indeed:1"}))
}

func Test_WatchScheduler_Tick_WhenSearchFails_ShouldAbandonPoll(t *testing.T) {
	searcher := &fakeSearcher{fn: func(context.Context, models.FilterKey) ([]models.Listing, error) {
		return nil, errors.New("request failed with status 502")
	}}
	scheduler, seen := newTestScheduler(searcher)
	seen.Store(seen.KeyFor("golang", ""), []string{"indeed:1"})

	host := newMockHost(notifier.PermissionGranted)
	watch, err := scheduler.Start("chat", staticFilter("golang", ""), host)
	require.NoError(t, err)
	defer scheduler.Stop(watch)

	scheduler.tick(watch)

	assert.Empty(t, host.sent())
	assert.Empty(t, seen.DiffNew(seen.KeyFor("golang", ""), []string{"indeed:1"}))
}

func Test_WatchScheduler_Tick_ShouldUseCurrentFilter(t *testing.T) {
	searcher := &fakeSearcher{fn: func(context.Context, models.FilterKey) ([]models.Listing, error) {
		return nil, nil
	}}
	scheduler, _ := newTestScheduler(searcher)

	var mu sync.Mutex
	query := "golang"
	filter := func() models.FilterKey {
		mu.Lock()
		defer mu.Unlock()
		return models.NewFilterKey(query, "")
	}

	watch, err := scheduler.Start("chat", filter, newMockHost(notifier.PermissionGranted))
	require.NoError(t, err)
	defer scheduler.Stop(watch)

	mu.Lock()
	query = "rust"
	mu.Unlock()
	scheduler.tick(watch)

	mu.Lock()
	query = ""
	mu.Unlock()
	scheduler.tick(watch)

	assert.Equal(t, []models.FilterKey{models.NewFilterKey("rust", "")}, searcher.calls)
}

func Test_WatchScheduler_WhenStoppedDuringPoll_ShouldNotNotifyOrStore(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	searcher := &fakeSearcher{fn: func(context.Context, models.FilterKey) ([]models.Listing, error) {
		close(entered)
		<-release
		return []models.Listing{listing(models.SourceIndeed, "1", "Go")}, nil
	}}
	scheduler, seen := newTestScheduler(searcher)

	host := newMockHost(notifier.PermissionGranted)
	watch, err := scheduler.Start("chat", staticFilter("golang", ""), host)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		scheduler.tick(watch)
		close(done)
	}()
	<-entered

	scheduler.Stop(watch)
	close(release)
	<-done

	assert.False(t, watch.Active())
	assert.Empty(t, host.sent())
	assert.Equal(t, []string{"indeed:1"}, seen.DiffNew(seen.KeyFor("golang", ""), []string{"indeed:1"}))
}

func Test_WatchScheduler_Stop_ShouldCancelInFlightPollAndWaitForIt(t *testing.T) {
	entered := make(chan struct{}, 1)
	var finished sync.WaitGroup
	finished.Add(1)
	var once sync.Once

	searcher := &fakeSearcher{fn: func(ctx context.Context, _ models.FilterKey) ([]models.Listing, error) {
		entered <- struct{}{}
		<-ctx.Done()
		once.Do(finished.Done)
		return nil, ctx.Err()
	}}
	seen := NewSeenTracker(repositories.NewMemoryData(), 0)
	scheduler := NewWatchScheduler(searcher, seen, EventBus.New(), time.Second)

	host := newMockHost(notifier.PermissionGranted)
	watch, err := scheduler.Start("chat", staticFilter("golang", ""), host)
	require.NoError(t, err)

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not poll")
	}

	stopped := make(chan struct{})
	go func() {
		scheduler.Stop(watch)
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("stop did not return")
	}

	finished.Wait()
	assert.Empty(t, host.sent())
	assert.NotZero(t, searcher.callCount())
}

func Test_WatchScheduler_Stop_ShouldBeIdempotentAndPublishOnce(t *testing.T) {
	bus := EventBus.New()
	var mu sync.Mutex
	var states []bool
	require.NoError(t, bus.Subscribe(events.WatchStateChangedTopic, func(event events.WatchStateChanged) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, event.Watching)
	}))

	scheduler := NewWatchScheduler(&fakeSearcher{}, NewSeenTracker(repositories.NewMemoryData(), 0), bus, time.Hour)

	watch, err := scheduler.Start("chat", staticFilter("golang", ""), newMockHost(notifier.PermissionGranted))
	require.NoError(t, err)

	scheduler.Stop(watch)
	scheduler.Stop(watch)
	scheduler.Stop(nil)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, states)
	assert.Nil(t, scheduler.Current())
}

func Test_WatchScheduler_Start_ShouldReplaceRunningWatch(t *testing.T) {
	scheduler, _ := newTestScheduler(&fakeSearcher{})

	first, err := scheduler.Start("chat", staticFilter("golang", ""), newMockHost(notifier.PermissionGranted))
	require.NoError(t, err)
	second, err := scheduler.Start("chat", staticFilter("rust", ""), newMockHost(notifier.PermissionGranted))
	require.NoError(t, err)
	defer scheduler.Stop(second)

	assert.False(t, first.Active())
	assert.True(t, second.Active())
	assert.Same(t, second, scheduler.Current())
}
