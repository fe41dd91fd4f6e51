// Package metrics holds the domain counters exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "nexsched"

var (
	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Appointments created through the public booking flow.",
		},
		[]string{"company_id", "outcome"},
	)

	StatusChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_status_changes_total",
			Help:      "Appointment status updates by target status.",
		},
		[]string{"status"},
	)

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by requested role, strategy and result.",
		},
		[]string{"role", "strategy", "result"},
	)

	AssistRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assist_requests_total",
			Help:      "Text generation requests by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	AssistDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assist_request_duration_seconds",
			Help:      "Latency of text generation calls.",
			Buckets:   []float64{.25, .5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"kind"},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events written to Kafka.",
		},
		[]string{"event_type"},
	)

	EventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Domain events discarded because the outbox was full or publishing is disabled.",
		},
	)

	OutboxDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outbox_depth",
			Help:      "Domain events waiting to be published.",
		},
	)

	RemindersSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_sent_total",
			Help:      "Reminder messages handed to the notification sender.",
		},
		[]string{"provider", "result"},
	)

	LiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_connections",
			Help:      "Open dashboard websocket connections.",
		},
	)
)
