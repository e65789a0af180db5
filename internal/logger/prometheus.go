package logger

import (
	"github.com/maxaizer/jobs-finder/internal/metrics"
	log "github.com/sirupsen/logrus"
)

// prometheusHook counts errors by their error_type. Warnings are counted only when
// they carry a type: they mark degradations like a malformed payload that was skipped.
type prometheusHook struct{}

func (h *prometheusHook) Fire(entry *log.Entry) error {
	errorType, ok := entry.Data[ErrorTypeField].(string)
	if !ok {
		if entry.Level == log.WarnLevel {
			return nil
		}
		errorType = "unknown"
	}

	metrics.ErrorsCounter.WithLabelValues(errorType, entry.Level.String()).Inc()
	return nil
}

func (h *prometheusHook) Levels() []log.Level {
	return []log.Level{
		log.WarnLevel,
		log.ErrorLevel,
		log.FatalLevel,
		log.PanicLevel,
	}
}

func addPrometheusHook() {
	log.AddHook(&prometheusHook{})
}
