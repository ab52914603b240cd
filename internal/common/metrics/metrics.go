// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GeocodeProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_provider_requests_total",
			Help: "Reverse geocoding attempts per provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	GeocodeResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_resolutions_total",
			Help: "Location resolutions by final result",
		},
		[]string{"result"},
	)

	QualificationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qualification_requests_total",
			Help: "Qualification requests by resulting status",
		},
		[]string{"status"},
	)

	QualificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qualification_request_duration_seconds",
			Help:    "Duration of qualification requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	UploadRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upload_rejections_total",
			Help: "Rejected document uploads by reason",
		},
		[]string{"reason"},
	)

	PreviewsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "upload_previews_active",
			Help: "Preview resources currently held by upload sessions",
		},
	)

	ReferenceCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reference_cache_lookups_total",
			Help: "Reference data cache lookups by kind and result",
		},
		[]string{"kind", "result"},
	)
)

// Outcome labels shared by the counters above.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeUnusable = "unusable"
	ResultHit       = "hit"
	ResultMiss      = "miss"
)
