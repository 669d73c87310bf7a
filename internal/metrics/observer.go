package metrics

import (
	"photo-share/internal/docstore"
	"photo-share/internal/filesystem"
	"photo-share/internal/geocode"
	"photo-share/internal/ingest"
	"photo-share/internal/media"
	"photo-share/internal/memory"
	"photo-share/internal/transcoder"
)

// Observer implements the metrics hooks of every package that reports through one, using
// the Prometheus metrics declared in metrics.go.
type Observer struct{}

var (
	_ filesystem.Observer = Observer{}
	_ docstore.Observer   = Observer{}
	_ media.Observer      = Observer{}
	_ transcoder.Observer = Observer{}
	_ geocode.Observer    = Observer{}
	_ ingest.Observer     = Observer{}
	_ memory.Observer     = Observer{}
)

// Register installs Observer as the metrics observer of every instrumented package.
func Register() {
	o := Observer{}
	filesystem.SetObserver(o)
	docstore.SetObserver(o)
	media.SetObserver(o)
	transcoder.SetObserver(o)
	geocode.SetObserver(o)
	ingest.SetObserver(o)
	memory.SetObserver(o)
}

func (Observer) ObserveLockAcquired(waitSeconds float64, retries int) {
	LockAcquisitionsTotal.WithLabelValues("acquired").Inc()
	LockWaitDuration.WithLabelValues("acquired").Observe(waitSeconds)
}

func (Observer) ObserveLockTimeout(waitSeconds float64) {
	LockAcquisitionsTotal.WithLabelValues("timeout").Inc()
	LockWaitDuration.WithLabelValues("timeout").Observe(waitSeconds)
}

func (Observer) ObserveLockCancelled(waitSeconds float64) {
	LockAcquisitionsTotal.WithLabelValues("cancelled").Inc()
	LockWaitDuration.WithLabelValues("cancelled").Observe(waitSeconds)
}

func (Observer) ObserveLockRetry() {
	LockRetriesTotal.Inc()
}

func (Observer) ObserveStaleLockBroken() {
	StaleLocksBrokenTotal.Inc()
}

func (Observer) ObserveRetrySuccess(op string) {
	FilesystemRetrySuccess.WithLabelValues(op).Inc()
}

func (Observer) ObserveRetryFailure(op string) {
	FilesystemRetryFailures.WithLabelValues(op).Inc()
}

func (Observer) ObserveStaleError(op string) {
	FilesystemStaleErrors.WithLabelValues(op).Inc()
}

func (Observer) ObserveDocumentOp(op, status string, seconds float64) {
	DocumentOpsTotal.WithLabelValues(op, status).Inc()
	DocumentOpDuration.WithLabelValues(op).Observe(seconds)
}

func (Observer) ObserveThumbnail(engine, status string, seconds float64) {
	ThumbnailGenerationsTotal.WithLabelValues(engine, status).Inc()
	ThumbnailGenerationDuration.WithLabelValues(engine).Observe(seconds)
}

func (Observer) ObserveConversion(method, status string, seconds float64) {
	ConversionsTotal.WithLabelValues(method, status).Inc()
	ConversionDuration.WithLabelValues(method).Observe(seconds)
}

func (Observer) ObserveProbe(seconds float64) {
	ProbeDuration.Observe(seconds)
}

func (Observer) ObserveTranscodeStart() {
	TranscoderJobsInProgress.Inc()
}

func (Observer) ObserveTranscodeEnd(status string, seconds float64) {
	TranscoderJobsInProgress.Dec()
	TranscoderJobsTotal.WithLabelValues(status).Inc()
	TranscoderJobDuration.Observe(seconds)
}

func (Observer) ObserveLookup(status string, seconds float64) {
	GeocodeLookupsTotal.WithLabelValues(status).Inc()
	GeocodeLookupDuration.Observe(seconds)
}

func (Observer) ObserveCache(tier string, hit bool) {
	if hit {
		GeocodeCacheHits.WithLabelValues(tier).Inc()
	} else {
		GeocodeCacheMisses.WithLabelValues(tier).Inc()
	}
}

func (Observer) ObserveIngest(kind, status string, seconds float64) {
	IngestsTotal.WithLabelValues(kind, status).Inc()
	IngestDuration.WithLabelValues(kind).Observe(seconds)
}

func (Observer) ObserveCleanup(removed, failed int) {
	CleanupFilesRemoved.Add(float64(removed))
	CleanupErrors.Add(float64(failed))
}

func (Observer) ObserveMemoryUsage(ratio float64) {
	MemoryUsageRatio.Set(ratio)
}

func (Observer) ObserveMemoryPaused(paused bool) {
	if paused {
		MemoryPaused.Set(1)
		MemoryPausesTotal.Inc()
	} else {
		MemoryPaused.Set(0)
	}
}
