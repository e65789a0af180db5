package services

import (
	"context"
	"github.com/maxaizer/jobs-finder/internal/clients/backend"
	"github.com/maxaizer/jobs-finder/internal/domain/models"
	"github.com/maxaizer/jobs-finder/internal/metrics"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"sync/atomic"
)

var ErrSuperseded = errors.New("search superseded by a newer one")

const (
	topSearchesCacheKey = "top_searches"
	topSearchesLimit    = 10
)

type AnalyticsClient interface {
	RecordSearchEvent(ctx context.Context, keyword, canton string) error
	TopSearches(ctx context.Context, limit int) ([]backend.TopSearch, error)
}

type SearchSession struct {
	retriever ListingsRetriever
	analytics AnalyticsClient
	side      *SideChannel
	seen      *SeenTracker
	topCache  *gocache.Cache
	sequence  atomic.Uint64
}

// NewSearchSession creates a session. analytics and side may be nil, then no analytics
// is recorded. topCache may be shared between sessions.
func NewSearchSession(retriever ListingsRetriever, analytics AnalyticsClient, side *SideChannel,
	seen *SeenTracker, topCache *gocache.Cache) *SearchSession {

	return &SearchSession{
		retriever: retriever,
		analytics: analytics,
		side:      side,
		seen:      seen,
		topCache:  topCache,
	}
}

// Search runs one search. A user initiated search also records the analytics event,
// refreshes top searches and stores its result as the seen baseline of the filter.
// Only the latest user initiated search is applied, older ones return ErrSuperseded.
func (s *SearchSession) Search(ctx context.Context, query, region string, userInitiated bool) ([]models.Listing, error) {

	key := s.seen.KeyFor(query, region)

	var sequence uint64
	initiator := "watch"
	if userInitiated {
		initiator = "user"
		sequence = s.sequence.Add(1)
		s.recordSearchEvent(key)
	}
	metrics.SearchesCounter.WithLabelValues(initiator).Inc()

	listings, err := s.retriever.GetListings(ctx, key)
	if err != nil {
		return nil, err
	}

	if !userInitiated {
		return listings, nil
	}

	if s.sequence.Load() != sequence {
		return nil, ErrSuperseded
	}

	s.seen.Store(key, models.ListingKeys(listings))
	s.submitTopSearchesRefresh()

	return listings, nil
}

func (s *SearchSession) TopSearches() []models.TopSearch {
	if s.topCache == nil {
		return nil
	}
	if cached, found := s.topCache.Get(topSearchesCacheKey); found {
		return cached.([]models.TopSearch)
	}
	return nil
}

func (s *SearchSession) RefreshTopSearches(ctx context.Context) ([]models.TopSearch, error) {
	if s.analytics == nil {
		return nil, nil
	}

	top, err := s.analytics.TopSearches(ctx, topSearchesLimit)
	if err != nil {
		return nil, err
	}

	result := lo.Map(top, func(t backend.TopSearch, _ int) models.TopSearch {
		return models.TopSearch{Query: t.Keyword, Region: t.Canton, Count: t.Count}
	})
	if s.topCache != nil {
		s.topCache.SetDefault(topSearchesCacheKey, result)
	}
	return result, nil
}

func (s *SearchSession) recordSearchEvent(key models.FilterKey) {
	if s.analytics == nil || s.side == nil || key.IsEmpty() {
		return
	}
	s.side.Submit("search_event", func(ctx context.Context) error {
		return s.analytics.RecordSearchEvent(ctx, key.Query, key.Region)
	})
}

func (s *SearchSession) submitTopSearchesRefresh() {
	if s.analytics == nil || s.side == nil {
		return
	}
	s.side.Submit("top_searches", func(ctx context.Context) error {
		_, err := s.RefreshTopSearches(ctx)
		return err
	})
}
