package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"photo-share/internal/apperr"
)

func fastLockConfig() LockConfig {
	return LockConfig{
		MaxRetries:    200,
		InitialDelay:  time.Millisecond,
		BackoffFactor: 1.5,
		MaxDelay:      5 * time.Millisecond,
	}
}

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc.json")

	lock, err := AcquireLock(context.Background(), path, DefaultLockConfig())
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if lock.Marker() != path+".lock" {
		t.Errorf("Marker() = %q, want %q", lock.Marker(), path+".lock")
	}
	if _, err := os.Stat(path + ".lock"); err != nil {
		t.Fatalf("marker missing while held: %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(path + ".lock"); !os.IsNotExist(err) {
		t.Errorf("marker still present after release: %v", err)
	}

	// Second release is a no-op
	if err := lock.Release(); err != nil {
		t.Errorf("second Release: %v", err)
	}
}

func TestReleaseNilLock(t *testing.T) {
	var lock *Lock
	if err := lock.Release(); err != nil {
		t.Errorf("nil Release: %v", err)
	}
	if err := (&Lock{}).Release(); err != nil {
		t.Errorf("zero Release: %v", err)
	}
}

func TestAcquireTimesOutWithBackoff(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "albums", "abc.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}

	held, err := AcquireLock(context.Background(), path, DefaultLockConfig())
	if err != nil {
		t.Fatalf("first AcquireLock: %v", err)
	}
	defer held.Release()

	cfg := LockConfig{
		MaxRetries:    3,
		InitialDelay:  10 * time.Millisecond,
		BackoffFactor: 2,
		MaxDelay:      time.Second,
	}

	start := time.Now()
	_, err = AcquireLock(context.Background(), path, cfg)
	elapsed := time.Since(start)

	if !errors.Is(err, apperr.ErrLockTimeout) {
		t.Fatalf("err = %v, want LockTimeout", err)
	}
	if elapsed < 70*time.Millisecond {
		t.Errorf("gave up after %v, want at least 10+20+40ms", elapsed)
	}
}

func TestAcquireRespectsMaxDelay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc.json")
	held, err := AcquireLock(context.Background(), path, DefaultLockConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer held.Release()

	cfg := LockConfig{MaxRetries: 4, InitialDelay: 5 * time.Millisecond, BackoffFactor: 100, MaxDelay: 10 * time.Millisecond}

	start := time.Now()
	_, err = AcquireLock(context.Background(), path, cfg)
	elapsed := time.Since(start)

	if !errors.Is(err, apperr.ErrLockTimeout) {
		t.Fatalf("err = %v, want LockTimeout", err)
	}
	// 5 + 10 + 10 + 10 without the cap this would be 5 + 500 + ...
	if elapsed > 400*time.Millisecond {
		t.Errorf("took %v, MaxDelay not applied", elapsed)
	}
}

func TestAcquireWaitsForRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc.json")
	held, err := AcquireLock(context.Background(), path, DefaultLockConfig())
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = held.Release()
	}()

	lock, err := AcquireLock(context.Background(), path, fastLockConfig())
	if err != nil {
		t.Fatalf("waiter did not get the lock: %v", err)
	}
	_ = lock.Release()
}

func TestAcquireCancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc.json")
	held, err := AcquireLock(context.Background(), path, DefaultLockConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer held.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = AcquireLock(ctx, path, LockConfig{MaxRetries: 10, InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: time.Second})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled in chain", err)
	}
	if !errors.Is(err, apperr.ErrLockTimeout) {
		t.Errorf("err = %v, want LockTimeout kind", err)
	}
}

func TestAcquireMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "abc.json")
	_, err := AcquireLock(context.Background(), path, DefaultLockConfig())
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
	if errors.Is(err, apperr.ErrLockTimeout) {
		t.Error("missing directory should not be reported as a timeout")
	}
}

func TestMutualExclusion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.json")
	const workers = 16

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lock, err := AcquireLock(context.Background(), path, fastLockConfig())
			if err != nil {
				t.Errorf("AcquireLock: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			_ = lock.Release()
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Errorf("max holders at once = %d, want 1", maxInside)
	}
}

func TestStaleLockBreaking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc.json")
	marker := LockPath(path)
	if err := os.WriteFile(marker, []byte("pid=1"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(marker, old, old); err != nil {
		t.Fatal(err)
	}

	t.Run("disabled by default", func(t *testing.T) {
		cfg := LockConfig{MaxRetries: 1, InitialDelay: time.Millisecond, BackoffFactor: 2, MaxDelay: time.Millisecond}
		if _, err := AcquireLock(context.Background(), path, cfg); !errors.Is(err, apperr.ErrLockTimeout) {
			t.Fatalf("err = %v, want LockTimeout when StaleAfter is zero", err)
		}
	})

	t.Run("fresh marker is kept", func(t *testing.T) {
		cfg := LockConfig{MaxRetries: 1, InitialDelay: time.Millisecond, BackoffFactor: 2, MaxDelay: time.Millisecond, StaleAfter: 2 * time.Hour}
		if _, err := AcquireLock(context.Background(), path, cfg); !errors.Is(err, apperr.ErrLockTimeout) {
			t.Fatalf("err = %v, want LockTimeout for a marker younger than StaleAfter", err)
		}
	})

	t.Run("old marker is broken", func(t *testing.T) {
		cfg := LockConfig{MaxRetries: 1, InitialDelay: time.Millisecond, BackoffFactor: 2, MaxDelay: time.Millisecond, StaleAfter: time.Minute}
		lock, err := AcquireLock(context.Background(), path, cfg)
		if err != nil {
			t.Fatalf("AcquireLock: %v", err)
		}
		_ = lock.Release()
	})
}

func TestFindAndBreakStaleLocks(t *testing.T) {
	root := t.TempDir()
	albums := filepath.Join(root, "albums")
	if err := os.MkdirAll(albums, 0o755); err != nil {
		t.Fatal(err)
	}

	oldMarker := filepath.Join(albums, "old.json.lock")
	newMarker := filepath.Join(albums, "new.json.lock")
	doc := filepath.Join(albums, "old.json")
	for _, p := range []string{oldMarker, newMarker, doc} {
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(oldMarker, old, old); err != nil {
		t.Fatal(err)
	}

	stale, err := FindStaleLocks(root, time.Hour)
	if err != nil {
		t.Fatalf("FindStaleLocks: %v", err)
	}
	if len(stale) != 1 || stale[0].Path != oldMarker {
		t.Fatalf("FindStaleLocks = %+v, want only %s", stale, oldMarker)
	}

	n, err := BreakStaleLocks(root, time.Hour)
	if err != nil {
		t.Fatalf("BreakStaleLocks: %v", err)
	}
	if n != 1 {
		t.Errorf("removed %d, want 1", n)
	}
	if _, err := os.Stat(oldMarker); !os.IsNotExist(err) {
		t.Error("old marker still present")
	}
	if _, err := os.Stat(newMarker); err != nil {
		t.Error("fresh marker was removed")
	}
	if _, err := os.Stat(doc); err != nil {
		t.Error("document was removed")
	}
}

type recordingObserver struct {
	acquired, timeouts, retries, broken atomic.Int32
}

func (r *recordingObserver) ObserveLockAcquired(float64, int) { r.acquired.Add(1) }
func (r *recordingObserver) ObserveLockTimeout(float64)       { r.timeouts.Add(1) }
func (r *recordingObserver) ObserveLockCancelled(float64)     {}
func (r *recordingObserver) ObserveLockRetry()                { r.retries.Add(1) }
func (r *recordingObserver) ObserveStaleLockBroken()          { r.broken.Add(1) }
func (r *recordingObserver) ObserveRetrySuccess(string)       {}
func (r *recordingObserver) ObserveRetryFailure(string)       {}
func (r *recordingObserver) ObserveStaleError(string)         {}

func TestObserverIsNotified(t *testing.T) {
	obs := &recordingObserver{}
	SetObserver(obs)
	t.Cleanup(func() { SetObserver(nil) })

	path := filepath.Join(t.TempDir(), "abc.json")
	held, err := AcquireLock(context.Background(), path, DefaultLockConfig())
	if err != nil {
		t.Fatal(err)
	}
	cfg := LockConfig{MaxRetries: 2, InitialDelay: time.Millisecond, BackoffFactor: 2, MaxDelay: time.Millisecond}
	_, _ = AcquireLock(context.Background(), path, cfg)
	_ = held.Release()

	if obs.acquired.Load() != 1 {
		t.Errorf("acquired = %d, want 1", obs.acquired.Load())
	}
	if obs.timeouts.Load() != 1 {
		t.Errorf("timeouts = %d, want 1", obs.timeouts.Load())
	}
	if obs.retries.Load() != 2 {
		t.Errorf("retries = %d, want 2", obs.retries.Load())
	}
}
