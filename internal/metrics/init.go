package metrics

import "photo-share/internal/apperr"

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, result := range []string{"acquired", "timeout", "cancelled"} {
		LockAcquisitionsTotal.WithLabelValues(result)
		LockWaitDuration.WithLabelValues(result)
	}

	for _, op := range []string{"read", "stat"} {
		FilesystemRetrySuccess.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
	}

	docStatuses := []string{"success", string(apperr.LockTimeout), string(apperr.DocumentNotFound),
		string(apperr.DocumentCorrupt), string(apperr.Internal)}
	for _, op := range []string{"create", "read", "update", "delete"} {
		DocumentOpDuration.WithLabelValues(op)
		for _, status := range docStatuses {
			DocumentOpsTotal.WithLabelValues(op, status)
		}
	}

	// --- Ingest by kind ---
	for _, kind := range []string{"jpeg", "heic", "mp4", "quicktime", "unknown"} {
		IngestDuration.WithLabelValues(kind)
		IngestsTotal.WithLabelValues(kind, "success")
	}

	for _, engine := range []string{"imaging", "vips"} {
		ThumbnailGenerationDuration.WithLabelValues(engine)
		ThumbnailGenerationsTotal.WithLabelValues(engine, "success")
		ThumbnailGenerationsTotal.WithLabelValues(engine, "error")
	}
	for _, method := range []string{"builtin", "command"} {
		ConversionDuration.WithLabelValues(method)
		ConversionsTotal.WithLabelValues(method, "success")
		ConversionsTotal.WithLabelValues(method, "error")
	}

	TranscoderJobsTotal.WithLabelValues("success")
	TranscoderJobsTotal.WithLabelValues("error")

	GeocodeLookupsTotal.WithLabelValues("success")
	GeocodeLookupsTotal.WithLabelValues("error")
	for _, tier := range []string{"memory", "disk"} {
		GeocodeCacheHits.WithLabelValues(tier)
		GeocodeCacheMisses.WithLabelValues(tier)
	}

	for _, t := range []string{"admin", "collection", "album"} {
		LibraryDocuments.WithLabelValues(t)
	}
	for _, d := range []string{"images", "thumbs", "originals"} {
		LibraryMediaFiles.WithLabelValues(d)
		LibrarySizeBytes.WithLabelValues(d)
	}
}
