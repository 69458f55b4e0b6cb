// Package metrics exposes Prometheus instrumentation for the pipeline.
//
// Counters:
//   - vidsage_jobs_submitted_total: accepted submissions (dedup hits excluded)
//   - vidsage_events_published_total{event_type}
//   - vidsage_events_consumed_total{queue,outcome}: outcome is ack,
//     retry, requeue or drop
//   - vidsage_jobs_terminal_total{status}
//
// Histograms:
//   - vidsage_handler_duration_seconds{queue}: full handling of one
//     message including external calls
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vidsage_jobs_submitted_total",
		Help: "Number of video submissions that created a new job.",
	})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidsage_events_published_total",
		Help: "Number of events published to the bus, by event type.",
	}, []string{"event_type"})

	EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidsage_events_consumed_total",
		Help: "Number of consumed events, by queue and handling outcome.",
	}, []string{"queue", "outcome"})

	JobsTerminal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidsage_jobs_terminal_total",
		Help: "Number of jobs reaching a terminal status.",
	}, []string{"status"})

	HandlerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vidsage_handler_duration_seconds",
		Help:    "Time spent fully handling one message, by queue.",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"queue"})
)
