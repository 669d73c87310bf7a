package media

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"testing"
)

// gradient returns a test image with a recognisable pattern.
func gradient(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / width),
				G: uint8((y * 255) / height),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

type exifFields struct {
	orientation uint16
	dateTime    string // "YYYY:MM:DD HH:MM:SS"
	latRef      string
	lat         [3][2]uint32
	lonRef      string
	lon         [3][2]uint32
}

// exifSegment builds a little-endian TIFF/EXIF APP1 payload with IFD0, an Exif IFD and a
// GPS IFD.
func exifSegment(f exifFields) []byte {
	le := binary.LittleEndian
	buf := make([]byte, 190)
	copy(buf[0:], []byte{'I', 'I', 0x2A, 0x00})
	le.PutUint32(buf[4:], 8)

	entry := func(at int, tag, typ uint16, count, value uint32) {
		le.PutUint16(buf[at:], tag)
		le.PutUint16(buf[at+2:], typ)
		le.PutUint32(buf[at+4:], count)
		le.PutUint32(buf[at+8:], value)
	}

	// IFD0 at 8: Orientation, ExifIFD pointer, GPS pointer.
	le.PutUint16(buf[8:], 3)
	entry(10, 0x0112, 3, 1, uint32(f.orientation))
	entry(22, 0x8769, 4, 1, 50)
	entry(34, 0x8825, 4, 1, 88)

	// Exif IFD at 50: DateTimeOriginal.
	le.PutUint16(buf[50:], 1)
	entry(52, 0x9003, 2, 20, 68)
	copy(buf[68:88], append([]byte(f.dateTime), 0))

	// GPS IFD at 88.
	le.PutUint16(buf[88:], 4)
	entry(90, 0x0001, 2, 2, 0)
	copy(buf[98:], []byte{f.latRef[0], 0})
	entry(102, 0x0002, 5, 3, 142)
	entry(114, 0x0003, 2, 2, 0)
	copy(buf[122:], []byte{f.lonRef[0], 0})
	entry(126, 0x0004, 5, 3, 166)

	for i, r := range f.lat {
		le.PutUint32(buf[142+8*i:], r[0])
		le.PutUint32(buf[146+8*i:], r[1])
	}
	for i, r := range f.lon {
		le.PutUint32(buf[166+8*i:], r[0])
		le.PutUint32(buf[170+8*i:], r[1])
	}

	return append([]byte("Exif\x00\x00"), buf...)
}

// writeJPEG encodes a width x height JPEG to path, with an EXIF APP1 segment when f is not nil.
func writeJPEG(t *testing.T, path string, width, height int, f *exifFields) {
	t.Helper()
	var enc bytes.Buffer
	if err := jpeg.Encode(&enc, gradient(width, height), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}
	data := enc.Bytes()
	if f != nil {
		payload := exifSegment(*f)
		seg := []byte{0xFF, 0xE1, 0, 0}
		binary.BigEndian.PutUint16(seg[2:], uint16(len(payload)+2))
		seg = append(seg, payload...)
		data = append(append(append([]byte{}, data[:2]...), seg...), data[2:]...)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// sydney is 33°52'4"S 151°12'36"E.
var sydney = exifFields{
	orientation: 1,
	dateTime:    "2023:07:14 18:30:05",
	latRef:      "S",
	lat:         [3][2]uint32{{33, 1}, {52, 1}, {4, 1}},
	lonRef:      "E",
	lon:         [3][2]uint32{{151, 1}, {12, 1}, {36, 1}},
}
