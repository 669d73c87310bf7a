package media

import (
	"path/filepath"
	"sync/atomic"

	"photo-share/internal/docstore"
)

// Source is an upload that has been spilled to disk and not yet placed in canonical storage.
type Source struct {
	// Path is the spilled file. Processors consume it: on success it has been moved or removed.
	Path string
	// Name is the file name the client declared.
	Name string
	// Key names the stored asset.
	Key string
}

// Tracker records every file a processor writes so that a failed ingest can remove them.
type Tracker interface {
	Track(path string)
}

// TrackerFunc adapts a function to Tracker.
type TrackerFunc func(path string)

// Track calls f.
func (f TrackerFunc) Track(path string) { f(path) }

// Dirs locates the asset directories of a data root.
type Dirs struct {
	Images    string
	Thumbs    string
	Originals string
	Tmp       string
}

// DirsFor returns the asset directories of store.
func DirsFor(store *docstore.Store) Dirs {
	return Dirs{
		Images:    store.Dir(docstore.ImagesDir),
		Thumbs:    store.Dir(docstore.ThumbsDir),
		Originals: store.Dir(docstore.OriginalsDir),
		Tmp:       store.Dir(docstore.TmpDir),
	}
}

// ImagePath returns the canonical path of an asset file name.
func (d Dirs) ImagePath(name string) string { return filepath.Join(d.Images, name) }

// ThumbPath returns the path of a thumbnail file name.
func (d Dirs) ThumbPath(name string) string { return filepath.Join(d.Thumbs, name) }

// OriginalPath returns the path of a retained original file name.
func (d Dirs) OriginalPath(name string) string { return filepath.Join(d.Originals, name) }

// Observer records media processing metrics.
type Observer interface {
	// ObserveThumbnail records one thumbnail generation. engine is imaging or vips.
	ObserveThumbnail(engine, status string, seconds float64)
	// ObserveConversion records one HEIC conversion. method is builtin or command.
	ObserveConversion(method, status string, seconds float64)
}

type observerHolder struct{ o Observer }

var defaultObserver atomic.Pointer[observerHolder]

// SetObserver sets the package-level metrics observer.
func SetObserver(o Observer) {
	defaultObserver.Store(&observerHolder{o: o})
}

func observe() Observer {
	if h := defaultObserver.Load(); h != nil {
		return h.o
	}
	return nil
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
