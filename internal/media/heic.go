package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"photo-share/internal/apperr"
	"photo-share/internal/logging"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/heic"
)

// HEICConverter turns HEIC files into JPEG. By default it decodes in process; a configured
// command is run as "<command> <src> <dst>" instead.
type HEICConverter struct {
	command []string
	quality int
	timeout time.Duration
	decode  func(io.Reader) (image.Image, error)
}

// NewHEICConverter creates a converter. command may be empty.
func NewHEICConverter(command string, quality int, timeout time.Duration) *HEICConverter {
	if quality <= 0 || quality > 100 {
		quality = 92
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &HEICConverter{command: strings.Fields(command), quality: quality, timeout: timeout, decode: heic.Decode}
}

// Convert writes a JPEG rendition of src to dst. Failures are CodecToolError.
func (c *HEICConverter) Convert(ctx context.Context, src, dst string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	method := "builtin"
	if len(c.command) > 0 {
		method = "command"
	}

	start := time.Now()
	var err error
	if len(c.command) > 0 {
		err = c.convertCommand(ctx, src, dst)
	} else {
		err = c.convertBuiltin(ctx, src, dst)
	}
	if o := observe(); o != nil {
		o.ObserveConversion(method, statusOf(err), time.Since(start).Seconds())
	}
	if err != nil {
		return apperr.E(apperr.CodecToolError, "convert heic", err)
	}
	logging.Debug("Converted %s to %s (%s, %v)", filepath.Base(src), filepath.Base(dst), method, time.Since(start))
	return nil
}

func (c *HEICConverter) convertBuiltin(ctx context.Context, src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	type result struct {
		img image.Image
		err error
	}
	done := make(chan result, 1)
	go func() {
		img, err := c.decode(f)
		done <- result{img, err}
	}()

	// The decoder cannot be interrupted, so dst is written only here: a decode that
	// finishes after the deadline leaves nothing behind.
	select {
	case r := <-done:
		if r.err != nil {
			return fmt.Errorf("decode %s: %w", filepath.Base(src), r.err)
		}
		if err := imaging.Save(r.img, dst, imaging.JPEGQuality(c.quality)); err != nil {
			os.Remove(dst)
			return fmt.Errorf("encode %s: %w", filepath.Base(dst), err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("heic decode of %s: %w", filepath.Base(src), ctx.Err())
	}
}

func (c *HEICConverter) convertCommand(ctx context.Context, src, dst string) error {
	args := append(append([]string{}, c.command[1:]...), src, dst)
	cmd := exec.CommandContext(ctx, c.command[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s timed out: %w", c.command[0], ctx.Err())
		}
		return fmt.Errorf("%s failed: %w, stderr: %s", c.command[0], err, strings.TrimSpace(stderr.String()))
	}
	if info, err := os.Stat(dst); err != nil || info.Size() == 0 {
		return fmt.Errorf("%s produced no output", c.command[0])
	}
	return nil
}
