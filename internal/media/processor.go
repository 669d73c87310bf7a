package media

import (
	"context"
	"fmt"
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
)

// ImageProcessor turns an uploaded JPEG or HEIC into a canonical JPEG, a thumbnail and a
// media record.
type ImageProcessor struct {
	dirs   Dirs
	thumbs *Thumbnailer
	heic   *HEICConverter
	places geocode.Resolver
}

// NewImageProcessor creates an ImageProcessor.
func NewImageProcessor(dirs Dirs, thumbs *Thumbnailer, heic *HEICConverter, places geocode.Resolver) *ImageProcessor {
	return &ImageProcessor{dirs: dirs, thumbs: thumbs, heic: heic, places: places}
}

// Process stores src and builds its record. JPEGs are moved into canonical storage as is and
// keep no separate original. HEICs are kept under originals/ and converted to a JPEG with a
// fresh key. Thumbnail, dimensions and metadata are then produced concurrently; if any of
// them fails, Process fails and no record is returned.
//
// Every file written is reported to tr before it is created.
func (p *ImageProcessor) Process(ctx context.Context, src Source, kind mediatypes.Kind, tr Tracker) (*docstore.MediaRecord, error) {
	var canonical, original, metaPath string

	switch kind {
	case mediatypes.KindJPEG:
		canonical = p.dirs.ImagePath(src.Key + ".jpg")
		tr.Track(canonical)
		if err := filesystem.MoveFile(src.Path, canonical); err != nil {
			return nil, apperr.E(apperr.Internal, "store image", err)
		}
		metaPath = canonical

	case mediatypes.KindHEIC:
		original = p.dirs.OriginalPath(src.Key + kind.Extension())
		tr.Track(original)
		if err := filesystem.MoveFile(src.Path, original); err != nil {
			return nil, apperr.E(apperr.Internal, "store original", err)
		}
		canonical = p.dirs.ImagePath(keys.New() + ".jpg")
		tr.Track(canonical)
		if err := p.heic.Convert(ctx, original, canonical); err != nil {
			return nil, err
		}
		metaPath = original

	default:
		return nil, apperr.Errorf(apperr.UnknownType, "process image", "%s is not an image kind", kind)
	}

	thumb := p.dirs.ThumbPath(keys.New() + ".jpg")
	rec := &docstore.MediaRecord{
		File:     filepath.Base(canonical),
		Thumb:    filepath.Base(thumb),
		Date:     docstore.SentinelDate,
		Location: docstore.UnknownLocation,
	}
	if original != "" {
		rec.Original = filepath.Base(original)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tr.Track(thumb)
		return p.thumbs.FromFile(gctx, canonical, thumb)
	})

	g.Go(func() error {
		dims, err := DisplayDimensions(canonical)
		if err != nil {
			return apperr.E(apperr.Internal, "image dimensions", err)
		}
		rec.Width, rec.Height = dims.Width, dims.Height
		return nil
	})

	var date time.Time
	var location string
	g.Go(func() error {
		meta := p.readMetadata(kind, metaPath)
		date = meta.Date
		if !meta.HasGPS {
			return nil
		}
		place, err := p.places.Resolve(gctx, meta.Lat, meta.Lon)
		if err != nil {
			return err
		}
		location = place
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !date.IsZero() {
		rec.Date = date
	}
	if location != "" {
		rec.Location = location
	}
	return rec, nil
}

func (p *ImageProcessor) readMetadata(kind mediatypes.Kind, path string) Metadata {
	f, err := os.Open(path)
	if err != nil {
		logging.Warn("Cannot open %s for metadata: %v", filepath.Base(path), err)
		return Metadata{}
	}
	defer f.Close()

	var meta Metadata
	if kind == mediatypes.KindHEIC {
		meta, err = ReadHEICMetadata(f)
	} else {
		meta, err = ReadJPEGMetadata(f)
	}
	if err != nil {
		logging.Debug("No usable metadata in %s: %v", filepath.Base(path), err)
		return Metadata{}
	}
	return meta
}

// String describes the processor configuration for startup logs.
func (p *ImageProcessor) String() string {
	engine := "imaging"
	if p.thumbs.vips && IsVipsAvailable() {
		engine = "vips"
	}
	conv := "builtin"
	if len(p.heic.command) > 0 {
		conv = p.heic.command[0]
	}
	return fmt.Sprintf("thumbnails %dpx via %s, heic via %s", p.thumbs.size, engine, conv)
}
