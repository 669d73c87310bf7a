package ingest

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"photo-share/internal/logging"
)

// tracker records the files written during one ingest attempt. Processors call Track from
// several goroutines.
type tracker struct {
	mu    sync.Mutex
	paths []string
}

func (t *tracker) Track(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paths = append(t.paths, path)
}

// cleanup removes every tracked file. Files that were never created or have been moved are
// skipped. Failures are logged and counted, never returned.
func (t *tracker) cleanup() (removed, failed int) {
	t.mu.Lock()
	paths := t.paths
	t.paths = nil
	t.mu.Unlock()

	for i := len(paths) - 1; i >= 0; i-- {
		err := os.Remove(paths[i])
		switch {
		case err == nil:
			removed++
			logging.Debug("Cleanup removed %s", filepath.Base(paths[i]))
		case errors.Is(err, fs.ErrNotExist):
		default:
			failed++
			logging.Warn("Cleanup could not remove %s: %v", paths[i], err)
		}
	}
	return removed, failed
}
