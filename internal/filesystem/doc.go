// Package filesystem provides the filesystem primitives the document store is built on:
// advisory lock markers, atomic file replacement, and NFS-tolerant reads.
//
// # Locks
//
// [AcquireLock] creates "<path>.lock" with O_CREATE|O_EXCL. Exclusive creation is atomic on
// local filesystems and NFSv3+, so the marker works as a mutex across processes and hosts
// that share the data directory. While the marker exists, other acquirers sleep with
// exponential backoff (InitialDelay, multiplied by BackoffFactor, capped at MaxDelay) and give
// up with apperr.LockTimeout after MaxRetries retries.
//
//	lock, err := filesystem.AcquireLock(ctx, "albums/abc.json", filesystem.DefaultLockConfig())
//	if err != nil {
//	    return err
//	}
//	defer lock.Release()
//
// A holder that crashes leaves its marker behind. Nothing breaks such markers automatically
// unless LockConfig.StaleAfter is set; operators can list and remove them with
// [FindStaleLocks] and [BreakStaleLocks] (see cmd/albumctl).
//
// # Atomic writes
//
// [WriteFileAtomic] writes to a temporary sibling, fsyncs, and renames over the target.
// [MoveFile] relocates stored assets, copying when source and target are on different devices.
//
// # NFS retries
//
// [ReadFileWithRetry] and [StatWithRetry] retry ESTALE errors with capped exponential backoff.
//
// Metrics are reported through an [Observer] registered with [SetObserver].
package filesystem
