package services

import (
	"context"
	"fmt"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/jobs-finder/internal/domain/events"
	"github.com/maxaizer/jobs-finder/internal/domain/models"
	"github.com/maxaizer/jobs-finder/internal/logger"
	"github.com/maxaizer/jobs-finder/internal/metrics"
	"github.com/maxaizer/jobs-finder/internal/notifier"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"sync"
	"sync/atomic"
	"time"
)

var ErrEmptyQuery = errors.New("search query is empty")

type Searcher interface {
	Search(ctx context.Context, query, region string, userInitiated bool) ([]models.Listing, error)
}

// Watch is the handle of one running watch. It is stopped through WatchScheduler.Stop.
type Watch struct {
	owner    string
	filter   func() models.FilterKey
	host     notifier.Host
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
	active   atomic.Bool
	stopOnce sync.Once
}

func (w *Watch) Active() bool {
	return w.active.Load()
}

func (w *Watch) Filter() models.FilterKey {
	return w.filter()
}

// WatchScheduler polls the search of its owner and notifies about listings
// that were not seen before. An owner has at most one running watch.
type WatchScheduler struct {
	session  Searcher
	seen     *SeenTracker
	bus      EventBus.Bus
	interval time.Duration
	mu       sync.Mutex
	current  *Watch
}

func NewWatchScheduler(session Searcher, seen *SeenTracker, bus EventBus.Bus, interval time.Duration) *WatchScheduler {
	return &WatchScheduler{session: session, seen: seen, bus: bus, interval: interval}
}

// Start begins polling the filter returned by filter, replacing the running watch if any.
// The filter is evaluated on every tick so later edits are picked up.
func (s *WatchScheduler) Start(owner string, filter func() models.FilterKey, host notifier.Host) (*Watch, error) {

	key := filter()
	if key.IsEmpty() {
		return nil, ErrEmptyQuery
	}

	s.mu.Lock()
	previous := s.current
	s.current = nil
	s.mu.Unlock()

	if previous != nil {
		s.Stop(previous)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watch{owner: owner, filter: filter, host: host, ctx: ctx, cancel: cancel}
	w.active.Store(true)

	cronLogger := cron.PrintfLogger(log.StandardLogger())
	w.cron = cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	w.cron.Schedule(cron.Every(s.interval), cron.FuncJob(func() { s.tick(w) }))

	go host.RequestPermission(ctx)
	w.cron.Start()

	s.mu.Lock()
	s.current = w
	s.mu.Unlock()

	metrics.ActiveWatchesGauge.Inc()
	log.Infof("watch started for %s, filter %q, interval %v", owner, key.String(), s.interval)
	s.publish(w, key, true)

	return w, nil
}

// Stop cancels the timer and any in-flight poll. It returns once no poll of the
// watch is running anymore. Stopping an already stopped watch does nothing.
func (s *WatchScheduler) Stop(w *Watch) {
	if w == nil {
		return
	}

	w.stopOnce.Do(func() {
		w.active.Store(false)
		w.cancel()
		<-w.cron.Stop().Done()

		s.mu.Lock()
		if s.current == w {
			s.current = nil
		}
		s.mu.Unlock()

		metrics.ActiveWatchesGauge.Dec()
		log.Infof("watch stopped for %s", w.owner)
		s.publish(w, w.filter(), false)
	})
}

func (s *WatchScheduler) Current() *Watch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *WatchScheduler) tick(w *Watch) {

	key := w.filter()
	if key.IsEmpty() {
		return
	}

	start := time.Now()
	listings, err := s.session.Search(w.ctx, key.Query, key.Region, false)
	metrics.PollDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if w.ctx.Err() != nil {
			metrics.PollsCounter.WithLabelValues("canceled").Inc()
			return
		}
		log.WithFields(log.Fields{logger.ErrorTypeField: logger.ErrorTypeBackendApi, logger.OwnerField: w.owner}).
			Errorf("watch poll failed: %v", err)
		metrics.PollsCounter.WithLabelValues("failed").Inc()
		return
	}

	ids := models.ListingKeys(listings)
	fresh := s.seen.DiffNew(key, ids)

	if !w.active.Load() {
		metrics.PollsCounter.WithLabelValues("canceled").Inc()
		return
	}

	if len(fresh) > 0 {
		metrics.NewListingsCounter.Add(float64(len(fresh)))
		s.notify(w, key, len(fresh))
	}

	s.seen.Store(key, ids)
	metrics.PollsCounter.WithLabelValues("ok").Inc()
}

func (s *WatchScheduler) notify(w *Watch, key models.FilterKey, count int) {
	if w.host.Permission() != notifier.PermissionGranted {
		metrics.NotificationsCounter.WithLabelValues("not_permitted").Inc()
		return
	}

	title := fmt.Sprintf("Новые вакансии: %d", count)
	body := fmt.Sprintf("По запросу «%s»", key.Query)
	if key.Region != "" {
		body += fmt.Sprintf(" (%s)", key.Region)
	}

	if err := w.host.Notify(w.ctx, title, body); err != nil {
		log.WithFields(log.Fields{logger.ErrorTypeField: logger.ErrorTypeTgApi, logger.OwnerField: w.owner}).
			Errorf("failed to notify: %v", err)
		metrics.NotificationsCounter.WithLabelValues("failed").Inc()
		return
	}
	metrics.NotificationsCounter.WithLabelValues("sent").Inc()
}

func (s *WatchScheduler) publish(w *Watch, key models.FilterKey, watching bool) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.WatchStateChangedTopic, events.WatchStateChanged{
		Owner:    w.owner,
		Filter:   key,
		Watching: watching,
	})
}
