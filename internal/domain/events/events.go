package events

import "github.com/maxaizer/jobs-finder/internal/domain/models"

var WatchStateChangedTopic = "WatchStateChangedEvent"

// WatchStateChanged is published when a watch starts or stops.
type WatchStateChanged struct {
	Owner    string
	Filter   models.FilterKey
	Watching bool
}
