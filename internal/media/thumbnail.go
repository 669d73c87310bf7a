package media

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"photo-share/internal/apperr"
	"photo-share/internal/logging"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// DefaultThumbnailSize is the edge length of thumbnails in pixels.
const DefaultThumbnailSize = 200

// Thumbnailer produces square JPEG thumbnails of exactly Size x Size pixels.
type Thumbnailer struct {
	size    int
	quality int
	vips    bool
}

// NewThumbnailer creates a Thumbnailer. When useVips is set and libvips has been initialized,
// file thumbnails are produced by libvips; otherwise the imaging library is used.
func NewThumbnailer(size, quality int, useVips bool) *Thumbnailer {
	if size <= 0 {
		size = DefaultThumbnailSize
	}
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &Thumbnailer{size: size, quality: quality, vips: useVips}
}

// Size returns the thumbnail edge length.
func (t *Thumbnailer) Size() int { return t.size }

// String describes the thumbnail settings for the startup log.
func (t *Thumbnailer) String() string {
	engine := "imaging"
	if t.vips && IsVipsAvailable() {
		engine = "libvips"
	}
	return fmt.Sprintf("%dx%d JPEG q%d via %s", t.size, t.size, t.quality, engine)
}

// FromFile decodes the image at src, applying its EXIF orientation, and writes the thumbnail
// to dst.
func (t *Thumbnailer) FromFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if t.vips && IsVipsAvailable() {
		start := time.Now()
		err := thumbnailWithVips(src, dst, t.size, t.quality)
		if o := observe(); o != nil {
			o.ObserveThumbnail("vips", statusOf(err), time.Since(start).Seconds())
		}
		if err == nil {
			return nil
		}
		logging.Warn("libvips thumbnail failed for %s, falling back to imaging: %v", filepath.Base(src), err)
	}

	start := time.Now()
	err := t.fromFileImaging(src, dst)
	if o := observe(); o != nil {
		o.ObserveThumbnail("imaging", statusOf(err), time.Since(start).Seconds())
	}
	return err
}

func (t *Thumbnailer) fromFileImaging(src, dst string) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return apperr.E(apperr.Internal, "thumbnail", fmt.Errorf("decode %s: %w", filepath.Base(src), err))
	}
	return t.FromImage(img, dst)
}

// FromImage writes the thumbnail of an already decoded image to dst.
func (t *Thumbnailer) FromImage(img image.Image, dst string) error {
	thumb := SquareThumbnail(img, t.size)
	if err := imaging.Save(thumb, dst, imaging.JPEGQuality(t.quality)); err != nil {
		return apperr.E(apperr.Internal, "thumbnail", fmt.Errorf("save %s: %w", filepath.Base(dst), err))
	}
	logging.Debug("Thumbnail written: %s", filepath.Base(dst))
	return nil
}

// SquareThumbnail resizes in two stages: first so that the shorter side equals size
// (fit outside the box), then a centered crop to exactly size x size (cover).
func SquareThumbnail(img image.Image, size int) *image.NRGBA {
	b := img.Bounds()
	var fitted *image.NRGBA
	if b.Dx() >= b.Dy() {
		fitted = imaging.Resize(img, 0, size, imaging.Lanczos)
	} else {
		fitted = imaging.Resize(img, size, 0, imaging.Lanczos)
	}
	return imaging.Fill(fitted, size, size, imaging.Center, imaging.Lanczos)
}
