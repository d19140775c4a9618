// Package metrics defines the Prometheus metrics exported by the media
// grabber: HTTP request metrics, download job lifecycle metrics, metadata
// extraction metrics, and database query metrics.
//
// All metrics are registered with the default registry using promauto.
// To expose them, mount promhttp.Handler() on the metrics server:
//
//	import "github.com/prometheus/client_golang/prometheus/promhttp"
//
//	mux.Handle("/metrics", promhttp.Handler())
//
// Call InitializeMetrics once at startup so that every expected label
// combination is present from the first scrape.
package metrics
