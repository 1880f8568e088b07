// Package metrics provides Prometheus metrics for the blog server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CMSRequests counts content API requests by operation and outcome.
	CMSRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spacetraveling",
			Name:      "cms_requests_total",
			Help:      "Total number of content API requests",
		},
		[]string{"operation", "status"},
	)

	// CMSDuration measures content API request duration.
	CMSDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spacetraveling",
			Name:      "cms_request_duration_seconds",
			Help:      "Duration of content API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// PagesLoaded counts listing pages appended to sessions.
	PagesLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spacetraveling",
			Name:      "listing_pages_loaded_total",
			Help:      "Total number of listing pages loaded",
		},
		[]string{"status"},
	)

	// PageBuilds counts post page generations by outcome.
	PageBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spacetraveling",
			Name:      "page_builds_total",
			Help:      "Total number of post page builds",
		},
		[]string{"outcome"},
	)

	// ActiveSessions tracks listing sessions currently held in memory.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "spacetraveling",
			Name:      "listing_sessions_active",
			Help:      "Number of active listing sessions",
		},
	)
)
