package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SourceFetches counts source fetches by outcome (ok, empty, error, panic).
	SourceFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobfeed_source_fetches_total",
			Help: "Total number of job board fetches by outcome.",
		},
		[]string{"source", "outcome"},
	)

	// Polls counts pair polls by trigger (search, scheduled) and result.
	Polls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobfeed_polls_total",
			Help: "Total number of subscription polls.",
		},
		[]string{"trigger", "result"},
	)

	DeliveredListings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobfeed_delivered_listings_total",
			Help: "Total number of listings delivered to subscribers.",
		},
	)

	DeliveryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobfeed_delivery_failures_total",
			Help: "Total number of outbound messages the transport failed to send.",
		},
		[]string{"kind"},
	)

	StateSaveFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobfeed_state_save_failures_total",
			Help: "Total number of failed state snapshot writes.",
		},
	)

	Sweeps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobfeed_sweeps_total",
			Help: "Total number of scheduled sweeps by status.",
		},
		[]string{"status"},
	)

	// HTTPRequests counts inbound API requests by route, method and status code.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobfeed_http_requests_total",
			Help: "Total number of inbound API requests.",
		},
		[]string{"path", "method", "code"},
	)

	// Subscriptions tracks the current number of subscribed pairs.
	Subscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobfeed_subscriptions",
			Help: "Number of active (subscriber, keyword) subscriptions.",
		},
	)

	SearchCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobfeed_search_cache_entries",
			Help: "Number of ephemeral search results currently held.",
		},
	)
)
