package media

import (
	"context"
	"errors"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"photo-share/internal/apperr"
	"photo-share/internal/docstore"
	"photo-share/internal/filesystem"
	"photo-share/internal/geocode"
	"photo-share/internal/keys"
	"photo-share/internal/mediatypes"
)

type recordingTracker struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingTracker) Track(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

type stubResolver struct {
	mu       sync.Mutex
	calls    int
	lat, lon float64
	place    string
	err      error
}

func (s *stubResolver) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lat, s.lon = lat, lon
	return s.place, s.err
}

func newTestProcessor(t *testing.T, places geocode.Resolver, heicCommand string) (*ImageProcessor, Dirs) {
	t.Helper()
	store := docstore.New(t.TempDir(), filesystem.DefaultLockConfig())
	if err := store.EnsureLayout(); err != nil {
		t.Fatal(err)
	}
	dirs := DirsFor(store)
	p := NewImageProcessor(dirs, NewThumbnailer(64, 80, false), NewHEICConverter(heicCommand, 90, time.Minute), places)
	return p, dirs
}

func spill(t *testing.T, dirs Dirs, write func(path string)) Source {
	t.Helper()
	key := keys.New()
	path := filepath.Join(dirs.Tmp, key+".upload")
	write(path)
	return Source{Path: path, Name: "IMG_0001.JPG", Key: key}
}

func TestProcessJPEGWithGPS(t *testing.T) {
	places := &stubResolver{place: "Sydney, New South Wales"}
	p, dirs := newTestProcessor(t, places, "")
	src := spill(t, dirs, func(path string) { writeJPEG(t, path, 300, 200, &sydney) })
	tr := &recordingTracker{}

	rec, err := p.Process(context.Background(), src, mediatypes.KindJPEG, tr)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if rec.File != src.Key+".jpg" {
		t.Errorf("File = %q, want %q", rec.File, src.Key+".jpg")
	}
	if rec.Original != "" {
		t.Errorf("Original = %q, want empty for JPEG", rec.Original)
	}
	if rec.Width != 300 || rec.Height != 200 {
		t.Errorf("dimensions = %dx%d", rec.Width, rec.Height)
	}
	if want := time.Date(2023, 7, 14, 18, 30, 5, 0, time.UTC); !rec.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", rec.Date, want)
	}
	if rec.Location != "Sydney, New South Wales" {
		t.Errorf("Location = %q", rec.Location)
	}
	if math.Abs(places.lat-(-33.867778)) > 1e-5 || math.Abs(places.lon-151.21) > 1e-5 {
		t.Errorf("resolver got %v,%v", places.lat, places.lon)
	}

	if _, err := os.Stat(src.Path); !os.IsNotExist(err) {
		t.Error("spilled upload still present")
	}
	for _, p := range []string{dirs.ImagePath(rec.File), dirs.ThumbPath(rec.Thumb)} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}
	if len(tr.paths) != 2 {
		t.Errorf("tracked %v, want image and thumbnail", tr.paths)
	}
}

func TestProcessJPEGWithoutMetadataUsesDefaults(t *testing.T) {
	places := &stubResolver{err: errors.New("must not be called")}
	p, dirs := newTestProcessor(t, places, "")
	src := spill(t, dirs, func(path string) { writeJPEG(t, path, 50, 80, nil) })

	rec, err := p.Process(context.Background(), src, mediatypes.KindJPEG, &recordingTracker{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !rec.Date.Equal(docstore.SentinelDate) {
		t.Errorf("Date = %v, want sentinel", rec.Date)
	}
	if rec.Location != docstore.UnknownLocation {
		t.Errorf("Location = %q", rec.Location)
	}
	if places.calls != 0 {
		t.Error("resolver called without GPS data")
	}
}

func TestProcessGeocodeFailureFailsRecord(t *testing.T) {
	places := &stubResolver{err: apperr.Errorf(apperr.GeocodeError, "geocode", "status 503")}
	p, dirs := newTestProcessor(t, places, "")
	src := spill(t, dirs, func(path string) { writeJPEG(t, path, 100, 100, &sydney) })
	tr := &recordingTracker{}

	rec, err := p.Process(context.Background(), src, mediatypes.KindJPEG, tr)
	if !errors.Is(err, apperr.ErrGeocode) {
		t.Fatalf("err = %v, want GeocodeError", err)
	}
	if rec != nil {
		t.Error("record returned despite failure")
	}
	if len(tr.paths) == 0 {
		t.Error("written files were not tracked for cleanup")
	}
}

func TestProcessGeocodeFailureWithLenientResolver(t *testing.T) {
	failing := &stubResolver{err: apperr.Errorf(apperr.GeocodeError, "geocode", "timeout")}
	p, dirs := newTestProcessor(t, geocode.Lenient{Next: failing}, "")
	src := spill(t, dirs, func(path string) { writeJPEG(t, path, 100, 100, &sydney) })

	rec, err := p.Process(context.Background(), src, mediatypes.KindJPEG, &recordingTracker{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if rec.Location != geocode.Placeholder {
		t.Errorf("Location = %q, want placeholder", rec.Location)
	}
}

func TestProcessHEICKeepsOriginal(t *testing.T) {
	cp, err := exec.LookPath("cp")
	if err != nil {
		t.Skip("cp not available")
	}
	// The converter command copies bytes; the payload is a JPEG so the copy decodes.
	p, dirs := newTestProcessor(t, &stubResolver{}, cp)
	src := spill(t, dirs, func(path string) { writeJPEG(t, path, 120, 90, nil) })
	tr := &recordingTracker{}

	rec, err := p.Process(context.Background(), src, mediatypes.KindHEIC, tr)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if rec.Original != src.Key+".heic" {
		t.Errorf("Original = %q", rec.Original)
	}
	if rec.File == src.Key+".jpg" {
		t.Error("converted file should get a fresh key")
	}
	if rec.Width != 120 || rec.Height != 90 {
		t.Errorf("dimensions = %dx%d", rec.Width, rec.Height)
	}
	if _, err := os.Stat(dirs.OriginalPath(rec.Original)); err != nil {
		t.Errorf("original missing: %v", err)
	}
	if len(tr.paths) != 3 {
		t.Errorf("tracked %v, want original, converted and thumbnail", tr.paths)
	}
}

func TestProcessHEICConversionFailure(t *testing.T) {
	p, dirs := newTestProcessor(t, &stubResolver{}, "/nonexistent/heif-convert")
	src := spill(t, dirs, func(path string) { writeJPEG(t, path, 10, 10, nil) })

	_, err := p.Process(context.Background(), src, mediatypes.KindHEIC, &recordingTracker{})
	if !errors.Is(err, apperr.ErrCodecTool) {
		t.Fatalf("err = %v, want CodecToolError", err)
	}
}

func TestProcessRejectsVideoKinds(t *testing.T) {
	p, dirs := newTestProcessor(t, &stubResolver{}, "")
	src := spill(t, dirs, func(path string) { writeJPEG(t, path, 10, 10, nil) })

	_, err := p.Process(context.Background(), src, mediatypes.KindMP4, &recordingTracker{})
	if !errors.Is(err, apperr.ErrUnknownType) {
		t.Fatalf("err = %v, want UnknownType", err)
	}
}
