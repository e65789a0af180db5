package services

import (
	"context"
	"github.com/maxaizer/jobs-finder/internal/clients/backend"
	"github.com/maxaizer/jobs-finder/internal/domain/models"
	"github.com/maxaizer/jobs-finder/internal/notifier"
	"github.com/stretchr/testify/mock"
	"sync"
)

type fakeRetriever struct {
	fn func(ctx context.Context, key models.FilterKey) ([]models.Listing, error)
}

func (f fakeRetriever) GetListings(ctx context.Context, key models.FilterKey) ([]models.Listing, error) {
	return f.fn(ctx, key)
}

func returnListings(listings ...models.Listing) fakeRetriever {
	return fakeRetriever{fn: func(context.Context, models.FilterKey) ([]models.Listing, error) {
		return listings, nil
	}}
}

type fakeSearcher struct {
	mu    sync.Mutex
	calls []models.FilterKey
	fn    func(ctx context.Context, key models.FilterKey) ([]models.Listing, error)
}

func (f *fakeSearcher) Search(ctx context.Context, query, region string, userInitiated bool) ([]models.Listing, error) {
	key := models.NewFilterKey(query, region)
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()
	return f.fn(ctx, key)
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type mockAnalytics struct {
	mock.Mock
}

func (m *mockAnalytics) RecordSearchEvent(ctx context.Context, keyword, canton string) error {
	return m.Called(ctx, keyword, canton).Error(0)
}

func (m *mockAnalytics) TopSearches(ctx context.Context, limit int) ([]backend.TopSearch, error) {
	args := m.Called(ctx, limit)
	top, _ := args.Get(0).([]backend.TopSearch)
	return top, args.Error(1)
}

type mockFavoritesClient struct {
	mock.Mock
}

func (m *mockFavoritesClient) AddFavorite(ctx context.Context, favorite backend.FavoriteIn) error {
	return m.Called(ctx, favorite).Error(0)
}

func (m *mockFavoritesClient) RemoveFavoriteByJob(ctx context.Context, jobID string) error {
	return m.Called(ctx, jobID).Error(0)
}

type mockAiClient struct {
	mock.Mock
}

func (m *mockAiClient) GenerateResponse(ctx context.Context, request string) (string, error) {
	args := m.Called(ctx, request)
	return args.String(0), args.Error(1)
}

type notification struct {
	title string
	body  string
}

type mockHost struct {
	mu            sync.Mutex
	permission    notifier.Permission
	requested     int
	notifications []notification
}

func newMockHost(permission notifier.Permission) *mockHost {
	return &mockHost{permission: permission}
}

func (h *mockHost) RequestPermission(context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requested++
}

func (h *mockHost) Permission() notifier.Permission {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.permission
}

func (h *mockHost) Notify(_ context.Context, title, body string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notifications = append(h.notifications, notification{title: title, body: body})
	return nil
}

func (h *mockHost) sent() []notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]notification(nil), h.notifications...)
}

func (h *mockHost) requestCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.requested
}

func listing(source models.Source, id, title string) models.Listing {
	return models.Listing{ID: id, Source: source, Title: title, URL: "https://jobs.test/" + id}
}
