package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_share_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_share_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_share_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Lock metrics
var (
	LockAcquisitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_share_lock_acquisitions_total",
			Help: "Total number of document lock acquisitions by result",
		},
		[]string{"result"}, // "acquired", "timeout", "cancelled"
	)

	LockWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_share_lock_wait_seconds",
			Help:    "Time spent waiting for a document lock",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"result"},
	)

	LockRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_share_lock_retries_total",
			Help: "Total number of backoff sleeps while a lock was held elsewhere",
		},
	)

	StaleLocksBrokenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_share_stale_locks_broken_total",
			Help: "Total number of stale lock markers removed",
		},
	)

	StaleLocks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_share_stale_locks",
			Help: "Number of lock markers older than the stale threshold at the last scan",
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_share_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying a stale handle",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_share_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_share_filesystem_stale_errors_total",
			Help: "Total number of ESTALE errors encountered",
		},
		[]string{"operation"},
	)
)

// Document store metrics
var (
	DocumentOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_share_document_operations_total",
			Help: "Total number of document store operations by status",
		},
		[]string{"operation", "status"},
	)

	DocumentOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_share_document_operation_duration_seconds",
			Help:    "Document store operation duration in seconds, lock wait included",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)

// Ingest metrics
var (
	IngestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_share_ingests_total",
			Help: "Total number of uploads by detected kind and result",
		},
		[]string{"kind", "status"},
	)

	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_share_ingest_duration_seconds",
			Help:    "Upload processing duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"kind"},
	)

	CleanupFilesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_share_cleanup_files_removed_total",
			Help: "Total number of files removed after failed uploads",
		},
	)

	CleanupErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_share_cleanup_errors_total",
			Help: "Total number of files that could not be removed after failed uploads",
		},
	)
)

// Thumbnail and conversion metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_share_thumbnail_generations_total",
			Help: "Total number of thumbnail generations",
		},
		[]string{"engine", "status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_share_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"engine"},
	)

	ConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_share_heic_conversions_total",
			Help: "Total number of HEIC to JPEG conversions",
		},
		[]string{"method", "status"},
	)

	ConversionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_share_heic_conversion_duration_seconds",
			Help:    "HEIC conversion duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method"},
	)
)

// Transcoder metrics
var (
	TranscoderJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_share_transcoder_jobs_total",
			Help: "Total number of transcoding jobs",
		},
		[]string{"status"},
	)

	TranscoderJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_share_transcoder_job_duration_seconds",
			Help:    "Transcoding job duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	TranscoderJobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_share_transcoder_jobs_in_progress",
			Help: "Number of transcoding jobs currently in progress",
		},
	)

	ProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_share_probe_duration_seconds",
			Help:    "ffprobe duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

// Geocode metrics
var (
	GeocodeLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_share_geocode_lookups_total",
			Help: "Total number of upstream reverse geocoding lookups",
		},
		[]string{"status"},
	)

	GeocodeLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_share_geocode_lookup_duration_seconds",
			Help:    "Upstream reverse geocoding duration in seconds, rate limit wait included",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	GeocodeCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_share_geocode_cache_hits_total",
			Help: "Total number of geocode cache hits by tier",
		},
		[]string{"tier"},
	)

	GeocodeCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_share_geocode_cache_misses_total",
			Help: "Total number of geocode cache misses by tier",
		},
		[]string{"tier"},
	)
)

// Library metrics
var (
	LibraryDocuments = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_share_library_documents",
			Help: "Number of documents by type",
		},
		[]string{"type"}, // "admin", "collection", "album"
	)

	LibraryMediaFiles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_share_library_media_files",
			Help: "Number of stored files by directory",
		},
		[]string{"dir"}, // "images", "thumbs", "originals"
	)

	LibrarySizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_share_library_size_bytes",
			Help: "Total size of stored files by directory",
		},
		[]string{"dir"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_share_memory_usage_ratio",
			Help: "Heap usage as a ratio of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_share_memory_paused",
			Help: "Whether new uploads are held back because of memory pressure (1 = paused)",
		},
	)

	MemoryPausesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_share_memory_pauses_total",
			Help: "Number of times uploads were held back because of memory pressure",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_share_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
