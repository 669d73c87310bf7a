package media

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/evanoberholster/imagemeta/exif2"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// exifDateFormat is how EXIF stores date-times. There is no zone; values are taken as UTC.
const exifDateFormat = "2006:01:02 15:04:05"

// Metadata is what the image pipeline extracts from EXIF. Zero values mean "not present".
type Metadata struct {
	Date        time.Time
	HasGPS      bool
	Lat, Lon    float64
	Orientation int
}

// Rotated reports whether the orientation turns the image by 90 or 270 degrees, which swaps
// the displayed width and height.
func (m Metadata) Rotated() bool {
	return m.Orientation >= 5 && m.Orientation <= 8
}

// ReadJPEGMetadata extracts capture time, GPS position and orientation from JPEG EXIF.
// An error means no EXIF could be parsed at all; callers treat that as absent metadata.
func ReadJPEGMetadata(r io.Reader) (Metadata, error) {
	x, err := exif.Decode(r)
	if x == nil {
		if err == nil {
			err = errors.New("no exif data")
		}
		return Metadata{}, fmt.Errorf("decode exif: %w", err)
	}
	// A non-nil x with an error is a partial parse; use what was read.

	var m Metadata
	for _, field := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTimeDigitized} {
		if ts, ok := exifTime(x, field); ok {
			m.Date = ts
			break
		}
	}

	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			m.Orientation = v
		}
	}

	lat, latOK := exifCoordinate(x, exif.GPSLatitude, exif.GPSLatitudeRef)
	lon, lonOK := exifCoordinate(x, exif.GPSLongitude, exif.GPSLongitudeRef)
	if latOK && lonOK {
		m.HasGPS, m.Lat, m.Lon = true, lat, lon
	}
	return m, nil
}

func exifTime(x *exif.Exif, field exif.FieldName) (time.Time, bool) {
	tag, err := x.Get(field)
	if err != nil || tag.Format() != tiff.StringVal {
		return time.Time{}, false
	}
	s, err := tag.StringVal()
	if err != nil {
		return time.Time{}, false
	}
	ts, err := ParseExifTime(s)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// ParseExifTime parses an EXIF "YYYY:MM:DD HH:MM:SS" value as UTC.
func ParseExifTime(s string) (time.Time, error) {
	s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
	if s == "" || strings.HasPrefix(s, "0000:00:00") {
		return time.Time{}, fmt.Errorf("empty exif date")
	}
	return time.ParseInLocation(exifDateFormat, s, time.UTC)
}

func exifCoordinate(x *exif.Exif, valueField, refField exif.FieldName) (float64, bool) {
	tag, err := x.Get(valueField)
	if err != nil || tag.Format() != tiff.RatVal || tag.Count < 3 {
		return 0, false
	}
	var parts [3]float64
	for i := range parts {
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return 0, false
		}
		parts[i] = float64(num) / float64(den)
	}

	ref := ""
	if refTag, err := x.Get(refField); err == nil {
		ref, _ = refTag.StringVal()
	}
	return DMSToDecimal(parts[0], parts[1], parts[2], ref), true
}

// DMSToDecimal converts degrees, minutes and seconds to decimal degrees. A hemisphere
// reference of S or W makes the result negative.
func DMSToDecimal(deg, min, sec float64, ref string) float64 {
	v := deg + min/60 + sec/3600
	switch strings.ToUpper(strings.TrimSpace(strings.TrimRight(ref, "\x00"))) {
	case "S", "W":
		return -v
	}
	return v
}

// ReadHEICMetadata extracts capture time (DateTimeOriginal, then CreateDate), GPS position
// and orientation from an HEIC file. Panics of the decoder on malformed files are reported
// as errors.
func ReadHEICMetadata(r io.ReadSeeker) (m Metadata, err error) {
	ex, err := decodeExifSafe(r)
	if err != nil {
		return Metadata{}, fmt.Errorf("decode heic metadata: %w", err)
	}

	ts := ex.DateTimeOriginal()
	if ts.IsZero() {
		ts = ex.CreateDate()
	}
	if !ts.IsZero() {
		// Local wall clock values carry no zone: keep the wall clock, label it UTC.
		m.Date = time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second(), 0, time.UTC)
	}
	m.Orientation = int(ex.Orientation)

	lat, lon := ex.GPS.Latitude(), ex.GPS.Longitude()
	if (lat != 0 || lon != 0) && lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180 {
		m.HasGPS, m.Lat, m.Lon = true, lat, lon
	}
	return m, nil
}

func decodeExifSafe(r io.ReadSeeker) (ex exif2.Exif, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while decoding metadata: %v", rec)
		}
	}()
	return imagemeta.Decode(r)
}
