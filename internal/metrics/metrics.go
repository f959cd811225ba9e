package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedRequests counts offer feed requests by outcome.
	FeedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offer_feed_requests_total",
			Help: "Offer feed requests served, labelled by outcome",
		},
		[]string{"status"}, // ok or error
	)

	// FeedDuration tracks the latency of assembling an offer feed.
	FeedDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "offer_feed_duration_seconds",
			Help: "Duration of offer feed assembly in seconds",
			Buckets: []float64{
				0.001, // 1ms
				0.005, // 5ms
				0.01,  // 10ms
				0.025, // 25ms
				0.05,  // 50ms
				0.1,   // 100ms
				0.25,  // 250ms
				0.5,   // 500ms
				1.0,   // 1s
			},
		},
	)

	// Interactions counts recorded interactions by type.
	Interactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offer_interactions_total",
			Help: "Interactions recorded, labelled by interaction type",
		},
		[]string{"type"},
	)

	// InteractionsDeduped counts impressions suppressed by the dedupe window.
	InteractionsDeduped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "offer_interactions_deduped_total",
			Help: "Impressions collapsed into an earlier record by the dedupe window",
		},
	)

	// WebhookEvents counts partner conversion webhook deliveries by outcome.
	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversion_webhook_events_total",
			Help: "Partner conversion webhook deliveries, labelled by outcome",
		},
		[]string{"outcome"}, // accepted, duplicate, parked, rejected, unauthorized
	)

	// LeadSubmissions counts lead form submissions by outcome.
	LeadSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_submissions_total",
			Help: "Lead form submissions, labelled by outcome",
		},
		[]string{"outcome"}, // accepted, rejected, throttled
	)

	// RevenueComputeDuration tracks the latency of partner revenue computation.
	RevenueComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "revenue_compute_duration_seconds",
			Help: "Duration of a partner revenue computation in seconds",
			Buckets: []float64{
				0.01, // 10ms
				0.05, // 50ms
				0.1,  // 100ms
				0.5,  // 500ms
				1.0,  // 1s
				5.0,  // 5s
				10.0, // 10s
			},
		},
	)
)

// RecordWebhookEvent records one webhook delivery outcome.
func RecordWebhookEvent(outcome string) {
	WebhookEvents.WithLabelValues(outcome).Inc()
}

// RecordInteraction records one stored interaction of the given type.
func RecordInteraction(kind string) {
	Interactions.WithLabelValues(kind).Inc()
}

// RecordLeadSubmission records one lead submission outcome.
func RecordLeadSubmission(outcome string) {
	LeadSubmissions.WithLabelValues(outcome).Inc()
}
