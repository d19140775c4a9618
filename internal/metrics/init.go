package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- Download outcomes (per format × status) ---
	formats := []string{"mp3", "mp4", "other"}
	for _, f := range formats {
		DownloadsTotal.WithLabelValues(f, "success")
		DownloadsTotal.WithLabelValues(f, "error")
		DownloadDuration.WithLabelValues(f)
	}

	// --- Metadata extraction ---
	MetadataRequestsTotal.WithLabelValues("success")
	MetadataRequestsTotal.WithLabelValues("error")

	// --- DB query operations ---
	for _, op := range []string{"initialize_schema", "record_download", "history"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
