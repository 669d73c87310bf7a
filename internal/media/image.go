package media

import (
	"fmt"
	"image"
	"os"

	"photo-share/internal/logging"

	_ "image/jpeg"
)

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions without fully decoding the image
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, fmt.Errorf("decode config of %s: %w", path, err)
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}

// DisplayDimensions returns the dimensions of the image at path as displayed after its EXIF
// orientation is applied.
func DisplayDimensions(path string) (*ImageDimensions, error) {
	dims, err := GetImageDimensions(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	meta, err := ReadJPEGMetadata(f)
	if err != nil {
		logging.Debug("No orientation for %s: %v", path, err)
		return dims, nil
	}
	if meta.Rotated() {
		dims.Width, dims.Height = dims.Height, dims.Width
	}
	return dims, nil
}
