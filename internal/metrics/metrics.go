package metrics

import (
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"net/http"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_finder_errors_total",
			Help: "Total number of logged errors and typed warnings.",
		},
		[]string{"type", "level"},
	)
	SearchesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_finder_searches_total",
			Help: "Total number of searches sent to the backend.",
		},
		[]string{"initiator"},
	)
	PollsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_finder_watch_polls_total",
			Help: "Total number of watch polls by result.",
		},
		[]string{"result"},
	)
	PollDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jobs_finder_watch_poll_duration_seconds",
			Help:    "Duration of each watch poll in seconds.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 15},
		},
	)
	NewListingsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobs_finder_new_listings_total",
			Help: "Total number of listings detected as new by watch polls.",
		},
	)
	NotificationsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_finder_notifications_total",
			Help: "Total number of raised notifications.",
		},
		[]string{"status"},
	)
	SideChannelTasksCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_finder_side_channel_tasks_total",
			Help: "Total number of best-effort background tasks by name and status.",
		},
		[]string{"task", "status"},
	)
	ActiveWatchesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobs_finder_active_watches",
			Help: "Number of currently running watches.",
		},
	)
)

func StartMetricsServer(port int) {

	prometheus.MustRegister(ErrorsCounter)
	prometheus.MustRegister(SearchesCounter)
	prometheus.MustRegister(PollsCounter)
	prometheus.MustRegister(PollDuration)
	prometheus.MustRegister(NewListingsCounter)
	prometheus.MustRegister(NotificationsCounter)
	prometheus.MustRegister(SideChannelTasksCounter)
	prometheus.MustRegister(ActiveWatchesGauge)

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", port), router))
	}()
}
