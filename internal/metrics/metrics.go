package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_grabber_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_grabber_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_grabber_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Download job metrics
var (
	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_grabber_downloads_total",
			Help: "Total number of finished download jobs by outcome",
		},
		[]string{"format", "status"},
	)

	DownloadsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_grabber_downloads_in_progress",
			Help: "Number of download jobs currently running",
		},
	)

	DownloadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_grabber_download_duration_seconds",
			Help:    "Download job duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"format"},
	)

	DownloadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_grabber_download_bytes_total",
			Help: "Total bytes of successfully downloaded media",
		},
	)

	DownloadsCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_grabber_downloads_cancelled_total",
			Help: "Total number of download jobs cancelled by clients",
		},
	)

	JobsTracked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_grabber_jobs_tracked",
			Help: "Number of job entries currently held in the registry",
		},
	)

	JobsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_grabber_jobs_evicted_total",
			Help: "Total number of terminal job entries evicted by the janitor",
		},
	)
)

// Metadata extraction metrics
var (
	MetadataRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_grabber_metadata_requests_total",
			Help: "Total number of metadata extraction requests",
		},
		[]string{"status"},
	)

	MetadataRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_grabber_metadata_request_duration_seconds",
			Help:    "Metadata extraction duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_grabber_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_grabber_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_grabber_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
