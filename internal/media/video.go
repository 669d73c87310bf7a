package media

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"photo-share/internal/apperr"
	"photo-share/internal/docstore"
	"photo-share/internal/filesystem"
	"photo-share/internal/geocode"
	"photo-share/internal/keys"
	"photo-share/internal/logging"
	"photo-share/internal/mediatypes"
	"photo-share/internal/transcoder"
)

// VideoProcessor turns an uploaded MP4 or QuickTime file into a browser-playable MP4, a
// thumbnail and a media record.
type VideoProcessor struct {
	dirs   Dirs
	thumbs *Thumbnailer
	tools  *transcoder.Transcoder
	places geocode.Resolver
}

// NewVideoProcessor creates a VideoProcessor.
func NewVideoProcessor(dirs Dirs, thumbs *Thumbnailer, tools *transcoder.Transcoder, places geocode.Resolver) *VideoProcessor {
	return &VideoProcessor{dirs: dirs, thumbs: thumbs, tools: tools, places: places}
}

// Process probes src and builds its record. A frame from the middle of the video becomes the
// thumbnail. Videos that browsers cannot play are transcoded to a fresh key and the source
// is kept under originals/; compatible ones are moved to images/ unchanged once the frame
// has been captured.
func (p *VideoProcessor) Process(ctx context.Context, src Source, kind mediatypes.Kind, tr Tracker) (*docstore.MediaRecord, error) {
	if !kind.IsVideo() {
		return nil, apperr.Errorf(apperr.UnknownType, "process video", "%s is not a video kind", kind)
	}

	probe, err := p.tools.Probe(ctx, src.Path)
	if err != nil {
		return nil, err
	}
	stream, err := probe.VideoStream()
	if err != nil {
		return nil, err
	}
	needsTranscode := transcoder.NeedsTranscode(kind, stream)
	logging.Debug("Video %s: codec=%s kind=%s rotation=%d transcode=%v",
		src.Name, stream.CodecName, kind, stream.Rotation(), needsTranscode)

	thumb := p.dirs.ThumbPath(keys.New() + ".jpg")
	rec := &docstore.MediaRecord{
		Thumb:    filepath.Base(thumb),
		Date:     docstore.SentinelDate,
		Location: docstore.UnknownLocation,
	}
	rec.Width, rec.Height = stream.DisplaySize()

	var canonical string
	if needsTranscode {
		canonical = p.dirs.ImagePath(keys.New() + ".mp4")
	} else {
		canonical = p.dirs.ImagePath(src.Key + ".mp4")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		frame := filepath.Join(p.dirs.Tmp, keys.New()+".frame.jpg")
		tr.Track(frame)
		defer os.Remove(frame)

		if err := p.captureFrame(gctx, src.Path, frame, probe.Duration()); err != nil {
			return err
		}
		tr.Track(thumb)
		return p.thumbs.FromFile(gctx, frame, thumb)
	})

	if needsTranscode {
		g.Go(func() error {
			tr.Track(canonical)
			return p.tools.Transcode(gctx, src.Path, canonical)
		})
	}

	var date time.Time
	var location string
	g.Go(func() error {
		if ts, ok := probe.CreationTime(); ok {
			date = ts
		}
		lat, lon, ok := probe.Location()
		if !ok {
			return nil
		}
		place, err := p.places.Resolve(gctx, lat, lon)
		if err != nil {
			return err
		}
		location = place
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// The source is read by every task above, so it moves only after they finish.
	if needsTranscode {
		original := p.dirs.OriginalPath(src.Key + kind.Extension())
		tr.Track(original)
		if err := filesystem.MoveFile(src.Path, original); err != nil {
			return nil, apperr.E(apperr.Internal, "store original", err)
		}
		rec.Original = filepath.Base(original)
	} else {
		tr.Track(canonical)
		if err := filesystem.MoveFile(src.Path, canonical); err != nil {
			return nil, apperr.E(apperr.Internal, "store video", err)
		}
	}
	rec.File = filepath.Base(canonical)

	if !date.IsZero() {
		rec.Date = date
	}
	if location != "" {
		rec.Location = location
	}
	return rec, nil
}

// captureFrame grabs the middle frame, falling back to the first for very short clips or
// streams whose duration is misreported.
func (p *VideoProcessor) captureFrame(ctx context.Context, src, dst string, duration float64) error {
	if duration > 0 {
		err := p.tools.CaptureFrame(ctx, src, dst, duration/2)
		if err == nil && nonEmpty(dst) {
			return nil
		}
		logging.Debug("Mid-point frame capture failed for %s, retrying at 0: %v", filepath.Base(src), err)
	}
	if err := p.tools.CaptureFrame(ctx, src, dst, 0); err != nil {
		return err
	}
	if !nonEmpty(dst) {
		return apperr.Errorf(apperr.CodecToolError, "capture frame", "no frame written for %s", filepath.Base(src))
	}
	return nil
}

func nonEmpty(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}
