package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"photo-share/internal/apperr"
	"photo-share/internal/logging"
)

// LockSuffix is appended to a document path to form its lock marker.
const LockSuffix = ".lock"

// LockConfig configures lock acquisition.
type LockConfig struct {
	// MaxRetries is the number of retries after the first failed attempt.
	MaxRetries int
	// InitialDelay is the sleep before the first retry.
	InitialDelay time.Duration
	// BackoffFactor multiplies the delay after every retry. Values below 1 keep it constant.
	BackoffFactor float64
	// MaxDelay caps the delay between retries.
	MaxDelay time.Duration
	// StaleAfter, when positive, allows removing a marker whose modification time is older
	// than this. Zero disables stale lock breaking: a crashed holder then needs an operator.
	StaleAfter time.Duration
}

// DefaultLockConfig returns the settings used by the document store.
func DefaultLockConfig() LockConfig {
	return LockConfig{
		MaxRetries:    8,
		InitialDelay:  10 * time.Millisecond,
		BackoffFactor: 2,
		MaxDelay:      time.Second,
	}
}

// Lock is a held lock marker. The zero value and nil are valid and release as no-ops.
type Lock struct {
	marker string
	once   sync.Once
}

// LockPath returns the marker path guarding path.
func LockPath(path string) string {
	return path + LockSuffix
}

// AcquireLock creates the marker for path with O_CREATE|O_EXCL, retrying with exponential
// backoff while another holder owns it. It fails with apperr.LockTimeout once the retries are
// exhausted or ctx is done.
//
// The lock is advisory and works across processes sharing the filesystem. It is not
// re-entrant: acquiring the same path twice from one goroutine waits for itself.
func AcquireLock(ctx context.Context, path string, cfg LockConfig) (*Lock, error) {
	const op = "acquire lock"
	marker := LockPath(path)
	start := time.Now()
	delay := cfg.InitialDelay
	factor := cfg.BackoffFactor
	if factor < 1 {
		factor = 1
	}

	for attempt := 0; ; attempt++ {
		err := createMarker(marker)
		if err == nil {
			if o := observe(); o != nil {
				o.ObserveLockAcquired(time.Since(start).Seconds(), attempt)
			}
			if attempt > 0 {
				logging.Debug("Lock %s acquired after %d retries (%v)", marker, attempt, time.Since(start))
			}
			return &Lock{marker: marker}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, apperr.E(apperr.Internal, op, fmt.Errorf("create %s: %w", marker, err))
		}

		if cfg.StaleAfter > 0 && breakIfStale(marker, cfg.StaleAfter) {
			continue
		}

		if attempt >= cfg.MaxRetries {
			if o := observe(); o != nil {
				o.ObserveLockTimeout(time.Since(start).Seconds())
			}
			return nil, apperr.Errorf(apperr.LockTimeout, op, "%s still held after %d attempts (%v)",
				path, attempt+1, time.Since(start).Round(time.Millisecond))
		}

		if o := observe(); o != nil {
			o.ObserveLockRetry()
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			if o := observe(); o != nil {
				o.ObserveLockCancelled(time.Since(start).Seconds())
			}
			return nil, apperr.E(apperr.LockTimeout, op, ctx.Err())
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * factor)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}

func createMarker(marker string) error {
	f, err := os.OpenFile(marker, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	// Holder details are diagnostics for operators; a failed write does not void the lock.
	host, _ := os.Hostname()
	if _, err := fmt.Fprintf(f, "pid=%d host=%s at=%s\n", os.Getpid(), host, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		logging.Debug("Lock %s: failed to record holder: %v", marker, err)
	}
	if err := f.Close(); err != nil {
		logging.Debug("Lock %s: close failed: %v", marker, err)
	}
	return nil
}

func breakIfStale(marker string, staleAfter time.Duration) bool {
	info, err := os.Stat(marker)
	if err != nil {
		// Released between our create attempt and the stat: just retry.
		return errors.Is(err, fs.ErrNotExist)
	}
	age := time.Since(info.ModTime())
	if age < staleAfter {
		return false
	}
	if err := os.Remove(marker); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Warn("Lock %s is stale (%v old) but could not be removed: %v", marker, age.Round(time.Second), err)
		return false
	}
	logging.Warn("Broke stale lock %s (%v old, threshold %v)", marker, age.Round(time.Second), staleAfter)
	if o := observe(); o != nil {
		o.ObserveStaleLockBroken()
	}
	return true
}

// Release removes the marker. It is safe to call more than once and on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.marker == "" {
		return nil
	}
	var err error
	l.once.Do(func() {
		if rmErr := os.Remove(l.marker); rmErr != nil {
			if errors.Is(rmErr, fs.ErrNotExist) {
				logging.Warn("Lock %s vanished before release (broken as stale?)", l.marker)
				return
			}
			err = fmt.Errorf("release %s: %w", l.marker, rmErr)
		}
	})
	return err
}

// Marker returns the marker file path.
func (l *Lock) Marker() string {
	if l == nil {
		return ""
	}
	return l.marker
}

// StaleLock describes a lock marker found on disk.
type StaleLock struct {
	Path string
	Age  time.Duration
}

// FindStaleLocks walks root and returns markers older than olderThan.
func FindStaleLocks(root string, olderThan time.Duration) ([]StaleLock, error) {
	var found []StaleLock
	now := time.Now()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), LockSuffix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if age := now.Sub(info.ModTime()); age >= olderThan {
			found = append(found, StaleLock{Path: path, Age: age})
		}
		return nil
	})
	return found, err
}

// BreakStaleLocks removes every marker under root older than olderThan and returns how many
// were removed. Meant for operators after a crash; a slow but live holder whose marker is
// removed will race the next writer.
func BreakStaleLocks(root string, olderThan time.Duration) (int, error) {
	stale, err := FindStaleLocks(root, olderThan)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, s := range stale {
		if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.Warn("Failed to remove stale lock %s: %v", s.Path, err)
			continue
		}
		logging.Info("Removed stale lock %s (%v old)", s.Path, s.Age.Round(time.Second))
		if o := observe(); o != nil {
			o.ObserveStaleLockBroken()
		}
		removed++
	}
	return removed, nil
}
