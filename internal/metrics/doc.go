// Package metrics provides Prometheus instrumentation for photo-share.
//
// All metrics are prefixed with "photo_share_" and registered with the default registry
// through promauto. They are served on a separate port by the /metrics handler.
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight (middleware.Metrics)
//
// ## Lock and Document Metrics
//
//   - LockAcquisitionsTotal and LockWaitDuration by result (acquired, timeout, cancelled)
//   - LockRetriesTotal, StaleLocksBrokenTotal, and the StaleLocks gauge set by the Collector
//   - DocumentOpsTotal and DocumentOpDuration by operation (create, read, update, delete)
//   - FilesystemRetrySuccess, FilesystemRetryFailures, FilesystemStaleErrors for NFS mounts
//
// ## Ingest Metrics
//
//   - IngestsTotal and IngestDuration by detected kind
//   - CleanupFilesRemoved and CleanupErrors after failed uploads
//   - ThumbnailGenerationsTotal by engine (imaging, vips), ConversionsTotal by method
//   - TranscoderJobsTotal, TranscoderJobDuration, TranscoderJobsInProgress, ProbeDuration
//   - GeocodeLookupsTotal, GeocodeLookupDuration, GeocodeCacheHits and GeocodeCacheMisses by tier
//
// ## Memory Metrics
//
//   - MemoryUsageRatio, MemoryPaused and MemoryPausesTotal from the upload gate (memory.Monitor)
//
// ## Library Metrics
//
// Updated by [Collector], which rescans the data directory on an interval:
//   - LibraryDocuments by type (admin, collection, album)
//   - LibraryMediaFiles and LibrarySizeBytes by directory (images, thumbs, originals)
//
// # Wiring
//
// The instrumented packages do not import this one. Each declares an Observer interface and
// a SetObserver function; [Register] installs this package's [Observer] in all of them.
//
//	metrics.Register()
//	metrics.InitializeMetrics()
//	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
package metrics
