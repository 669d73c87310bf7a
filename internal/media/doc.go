// Package media processes uploaded still images.
//
// [ImageProcessor] moves a JPEG into canonical storage, or keeps an HEIC as the original and
// converts it to JPEG with [HEICConverter]. It then runs three tasks concurrently:
//   - a square thumbnail from [Thumbnailer] (imaging, or libvips when enabled)
//   - display dimensions, swapping width and height for rotated EXIF orientations
//   - capture date and GPS position from EXIF, with the position resolved to a place name
//
// The video pipeline in package transcoder reuses [Thumbnailer] for captured frames.
package media
