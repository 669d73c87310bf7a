package media

import (
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"photo-share/internal/apperr"
	"photo-share/internal/docstore"
	"photo-share/internal/filesystem"
	"photo-share/internal/mediatypes"
	"photo-share/internal/transcoder"
)

// fakeTools stands in for ffprobe and ffmpeg. Frame captures write a real JPEG so the
// thumbnailer can decode it.
type fakeTools struct {
	mu            sync.Mutex
	probe         string
	frameFailsAt  map[string]bool
	transcodeErr  error
	seeks         []string
	transcodes    int
	sourceMissing bool
}

func (f *fakeTools) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if name == "ffprobe" {
		return []byte(f.probe), nil
	}
	src := args[slices.Index(args, "-i")+1]
	dst := args[len(args)-1]

	f.mu.Lock()
	if _, err := os.Stat(src); err != nil {
		f.sourceMissing = true
	}
	f.mu.Unlock()

	if i := slices.Index(args, "-frames:v"); i >= 0 {
		seek := args[slices.Index(args, "-ss")+1]
		f.mu.Lock()
		f.seeks = append(f.seeks, seek)
		fail := f.frameFailsAt[seek]
		f.mu.Unlock()
		if fail {
			return nil, errors.New("Output file is empty, nothing was encoded")
		}
		out, err := os.Create(dst)
		if err != nil {
			return nil, err
		}
		defer out.Close()
		return nil, jpeg.Encode(out, gradient(160, 90), nil)
	}

	f.mu.Lock()
	f.transcodes++
	f.mu.Unlock()
	if f.transcodeErr != nil {
		return nil, f.transcodeErr
	}
	return nil, os.WriteFile(dst, []byte("h264"), 0o644)
}

func probeJSON(codec string, width, height, rotate int, tags string) string {
	return fmt.Sprintf(`{
		"streams": [{"codec_type": "video", "codec_name": %q, "width": %d, "height": %d,
		             "tags": {"rotate": "%d"}}],
		"format": {"duration": "4.000", "tags": {%s}}
	}`, codec, width, height, rotate, tags)
}

func newTestVideoProcessor(t *testing.T, places *stubResolver, tools *fakeTools) (*VideoProcessor, Dirs) {
	t.Helper()
	store := docstore.New(t.TempDir(), filesystem.DefaultLockConfig())
	if err := store.EnsureLayout(); err != nil {
		t.Fatal(err)
	}
	tc := transcoder.New(transcoder.Config{ToolTimeout: 10 * time.Second})
	tc.SetRunner(tools.run)
	dirs := DirsFor(store)
	return NewVideoProcessor(dirs, NewThumbnailer(64, 80, false), tc, places), dirs
}

func writeVideo(t *testing.T) func(path string) {
	return func(path string) {
		if err := os.WriteFile(path, []byte("\x00\x00\x00\x18ftypmp42video"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestProcessCompatibleVideoIsRelocated(t *testing.T) {
	tools := &fakeTools{probe: probeJSON("h264", 1280, 720, 0, `"creation_time": "2023-07-14T08:30:05Z"`)}
	places := &stubResolver{}
	p, dirs := newTestVideoProcessor(t, places, tools)
	src := spill(t, dirs, writeVideo(t))
	tr := &recordingTracker{}

	rec, err := p.Process(context.Background(), src, mediatypes.KindMP4, tr)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if rec.File != src.Key+".mp4" || rec.Original != "" {
		t.Errorf("File = %q Original = %q", rec.File, rec.Original)
	}
	if rec.Width != 1280 || rec.Height != 720 {
		t.Errorf("dimensions = %dx%d", rec.Width, rec.Height)
	}
	if want := time.Date(2023, 7, 14, 8, 30, 5, 0, time.UTC); !rec.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", rec.Date, want)
	}
	if rec.Location != docstore.UnknownLocation || places.calls != 0 {
		t.Errorf("Location = %q after %d geocode calls", rec.Location, places.calls)
	}
	if tools.transcodes != 0 {
		t.Errorf("compatible video was transcoded %d times", tools.transcodes)
	}
	if tools.sourceMissing {
		t.Error("source was moved before the frame was captured")
	}
	if _, err := os.Stat(dirs.ImagePath(rec.File)); err != nil {
		t.Errorf("relocated video missing: %v", err)
	}
	assertSquareThumb(t, dirs.ThumbPath(rec.Thumb), 64)
	if _, err := os.Stat(src.Path); !os.IsNotExist(err) {
		t.Error("spilled upload still present")
	}
	assertNoFrames(t, dirs)
}

func TestProcessQuickTimeIsTranscoded(t *testing.T) {
	tools := &fakeTools{probe: probeJSON("hevc", 1920, 1080, 90,
		`"com.apple.quicktime.location.ISO6709": "-33.8678+151.2100+012.000/"`)}
	places := &stubResolver{place: "Sydney, New South Wales"}
	p, dirs := newTestVideoProcessor(t, places, tools)
	src := spill(t, dirs, writeVideo(t))
	tr := &recordingTracker{}

	rec, err := p.Process(context.Background(), src, mediatypes.KindQuickTime, tr)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if rec.Original != src.Key+".mov" {
		t.Errorf("Original = %q", rec.Original)
	}
	if rec.File == src.Key+".mp4" || !strings.HasSuffix(rec.File, ".mp4") {
		t.Errorf("File = %q, want a fresh .mp4 key", rec.File)
	}
	if rec.Width != 1080 || rec.Height != 1920 {
		t.Errorf("dimensions = %dx%d, want rotated 1080x1920", rec.Width, rec.Height)
	}
	if rec.Location != "Sydney, New South Wales" || places.lat != -33.8678 {
		t.Errorf("Location = %q resolved at %v", rec.Location, places.lat)
	}
	if !rec.Date.Equal(docstore.SentinelDate) {
		t.Errorf("Date = %v, want sentinel", rec.Date)
	}
	if tools.transcodes != 1 {
		t.Errorf("transcodes = %d, want 1", tools.transcodes)
	}
	for _, p := range []string{dirs.ImagePath(rec.File), dirs.OriginalPath(rec.Original), dirs.ThumbPath(rec.Thumb)} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s missing: %v", filepath.Base(p), err)
		}
	}
	assertSquareThumb(t, dirs.ThumbPath(rec.Thumb), 64)
	// frame, thumbnail, transcode output and original
	if len(tr.paths) != 4 {
		t.Errorf("tracked %v", tr.paths)
	}
}

func TestProcessVideoFrameFallsBackToStart(t *testing.T) {
	tools := &fakeTools{
		probe:        probeJSON("h264", 640, 480, 0, ""),
		frameFailsAt: map[string]bool{"2.000": true},
	}
	p, dirs := newTestVideoProcessor(t, &stubResolver{}, tools)
	src := spill(t, dirs, writeVideo(t))

	if _, err := p.Process(context.Background(), src, mediatypes.KindMP4, &recordingTracker{}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if want := []string{"2.000", "0.000"}; !slices.Equal(tools.seeks, want) {
		t.Errorf("seeks = %v, want %v", tools.seeks, want)
	}
}

func TestProcessVideoFailures(t *testing.T) {
	tests := []struct {
		name   string
		tools  *fakeTools
		places *stubResolver
		kind   mediatypes.Kind
		want   error
	}{
		{
			name:  "no video stream",
			tools: &fakeTools{probe: `{"streams":[{"codec_type":"audio","codec_name":"aac"}],"format":{}}`},
			kind:  mediatypes.KindMP4,
			want:  apperr.ErrNoVideoStream,
		},
		{
			name:  "frame capture fails",
			tools: &fakeTools{probe: probeJSON("h264", 640, 480, 0, ""), frameFailsAt: map[string]bool{"2.000": true, "0.000": true}},
			kind:  mediatypes.KindMP4,
			want:  apperr.ErrCodecTool,
		},
		{
			name:  "transcode fails",
			tools: &fakeTools{probe: probeJSON("hevc", 640, 480, 0, ""), transcodeErr: errors.New("exit status 1")},
			kind:  mediatypes.KindQuickTime,
			want:  apperr.ErrCodecTool,
		},
		{
			name:   "geocode fails",
			tools:  &fakeTools{probe: probeJSON("h264", 640, 480, 0, `"location": "+40.6894-074.0447/"`)},
			places: &stubResolver{err: apperr.Errorf(apperr.GeocodeError, "geocode", "HTTP 503")},
			kind:   mediatypes.KindMP4,
			want:   apperr.ErrGeocode,
		},
		{
			name:  "image kind",
			tools: &fakeTools{},
			kind:  mediatypes.KindJPEG,
			want:  apperr.ErrUnknownType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			places := tt.places
			if places == nil {
				places = &stubResolver{}
			}
			p, dirs := newTestVideoProcessor(t, places, tt.tools)
			src := spill(t, dirs, writeVideo(t))

			rec, err := p.Process(context.Background(), src, tt.kind, &recordingTracker{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if rec != nil {
				t.Errorf("record = %+v, want nil", rec)
			}
		})
	}
}

func assertNoFrames(t *testing.T, dirs Dirs) {
	t.Helper()
	entries, err := os.ReadDir(dirs.Tmp)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".frame.jpg") {
			t.Errorf("leftover frame %s", e.Name())
		}
	}
}

// assertSquareThumb checks that the thumbnail at path is exactly size×size pixels.
func assertSquareThumb(t *testing.T, path string, size int) {
	t.Helper()
	dims, err := GetImageDimensions(path)
	if err != nil {
		t.Fatalf("thumbnail unreadable: %v", err)
	}
	if dims.Width != size || dims.Height != size {
		t.Errorf("thumbnail = %dx%d, want %dx%d", dims.Width, dims.Height, size, size)
	}
}
