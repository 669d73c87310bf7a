package filesystem

import "sync/atomic"

// Observer records lock and retry metrics. The implementation lives in the metrics package
// so that filesystem does not import it.
type Observer interface {
	// ObserveLockAcquired records a successful acquisition, its total wait and retry count.
	ObserveLockAcquired(waitSeconds float64, retries int)
	// ObserveLockTimeout records an acquisition that gave up.
	ObserveLockTimeout(waitSeconds float64)
	// ObserveLockCancelled records an acquisition abandoned because its context ended.
	ObserveLockCancelled(waitSeconds float64)
	// ObserveLockRetry records one backoff sleep while a lock was held elsewhere.
	ObserveLockRetry()
	// ObserveStaleLockBroken records the removal of a stale marker.
	ObserveStaleLockBroken()

	// ObserveRetrySuccess, ObserveRetryFailure and ObserveStaleError track NFS resilience.
	// op is "read" or "stat".
	ObserveRetrySuccess(op string)
	ObserveRetryFailure(op string)
	ObserveStaleError(op string)
}

type observerHolder struct{ o Observer }

var defaultObserver atomic.Pointer[observerHolder]

// SetObserver sets the package-level metrics observer.
// Call this once at startup after creating the observer implementation.
func SetObserver(o Observer) {
	defaultObserver.Store(&observerHolder{o: o})
}

// observe returns the package-level observer or nil (safe for tests).
func observe() Observer {
	if h := defaultObserver.Load(); h != nil {
		return h.o
	}
	return nil
}
