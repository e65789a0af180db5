package services

import (
	"encoding/json"
	"github.com/maxaizer/jobs-finder/internal/domain/models"
	"github.com/maxaizer/jobs-finder/internal/logger"
	"github.com/maxaizer/jobs-finder/internal/repositories"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"sort"
	"sync"
	"time"
)

const (
	seenKeyPrefix = "seen:"
	seenIndexKey  = "seen_index"
)

// SeenTracker remembers which listings were already shown for each filter.
// A stored set fully replaces the previous one, so listings that disappear from
// the results are forgotten.
type SeenTracker struct {
	store    repositories.KeyValueStore
	capacity int
	now      func() time.Time
	mu       sync.Mutex
}

// NewSeenTracker keeps at most capacity filters, evicting the least recently stored.
// Zero capacity keeps every filter.
func NewSeenTracker(store repositories.KeyValueStore, capacity int) *SeenTracker {
	return &SeenTracker{store: store, capacity: capacity, now: time.Now}
}

func (t *SeenTracker) KeyFor(query, region string) models.FilterKey {
	return models.NewFilterKey(query, region)
}

func (t *SeenTracker) Load(key models.FilterKey) map[string]struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.load(key)
}

func (t *SeenTracker) load(key models.FilterKey) map[string]struct{} {
	seen := make(map[string]struct{})

	raw, found := t.store.Get(seenKeyPrefix + key.String())
	if !found {
		return seen
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		log.Warnf("ignoring malformed seen set for %q: %v", key.String(), err)
		return seen
	}

	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return seen
}

func (t *SeenTracker) Store(key models.FilterKey, ids []string) {
	if ids == nil {
		ids = []string{}
	}

	payload, err := json.Marshal(ids)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeStore).Errorf("failed to encode seen set: %v", err)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.store.Set(seenKeyPrefix+key.String(), string(payload))
	t.touch(key.String())
}

// DiffNew returns the ids of current that are not in the stored set, keeping their order.
func (t *SeenTracker) DiffNew(key models.FilterKey, current []string) []string {
	seen := t.Load(key)
	return lo.Filter(current, func(id string, _ int) bool {
		_, ok := seen[id]
		return !ok
	})
}

func (t *SeenTracker) touch(key string) {
	index := t.loadIndex()
	index[key] = t.now().UnixNano()

	if t.capacity > 0 && len(index) > t.capacity {
		keys := lo.Keys(index)
		sort.Slice(keys, func(i, j int) bool {
			if index[keys[i]] != index[keys[j]] {
				return index[keys[i]] < index[keys[j]]
			}
			return keys[i] < keys[j]
		})

		for _, evicted := range keys[:len(keys)-t.capacity] {
			t.store.Remove(seenKeyPrefix + evicted)
			delete(index, evicted)
		}
	}

	payload, err := json.Marshal(index)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeStore).Errorf("failed to encode seen index: %v", err)
		return
	}
	t.store.Set(seenIndexKey, string(payload))
}

func (t *SeenTracker) loadIndex() map[string]int64 {
	index := make(map[string]int64)

	raw, found := t.store.Get(seenIndexKey)
	if !found {
		return index
	}

	if err := json.Unmarshal([]byte(raw), &index); err != nil {
		log.Warnf("rebuilding malformed seen index: %v", err)
		return make(map[string]int64)
	}
	return index
}
