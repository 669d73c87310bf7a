package mediatypes

import (
	"bytes"
	"encoding/hex"
	"path/filepath"
	"strings"

	"photo-share/internal/apperr"
)

// Kind is a media format recognised from file content.
type Kind string

const (
	// KindUnknown is returned alongside an UnknownType error.
	KindUnknown Kind = ""
	// KindJPEG is a JPEG image.
	KindJPEG Kind = "jpeg"
	// KindHEIC is an HEIC/HEIF image.
	KindHEIC Kind = "heic"
	// KindMP4 is an ISO base media (MP4/M4V/3GP) video.
	KindMP4 Kind = "mp4"
	// KindQuickTime is a QuickTime (.mov) video.
	KindQuickTime Kind = "quicktime"
)

// PrefixLen is the number of leading bytes Classify inspects.
const PrefixLen = 12

type signature struct {
	offset int
	magic  []byte
	kind   Kind
}

// signatures is checked in order; the first match wins.
var signatures = []signature{
	// SOI followed by the first marker of any segment (APPn, DQT, ...).
	{0, []byte{0xFF, 0xD8, 0xFF}, KindJPEG},

	{4, []byte("ftypheic"), KindHEIC},
	{4, []byte("ftypheix"), KindHEIC},
	{4, []byte("ftyphevc"), KindHEIC},
	{4, []byte("ftypheim"), KindHEIC},
	{4, []byte("ftypheis"), KindHEIC},
	{4, []byte("ftypmif1"), KindHEIC},
	{4, []byte("ftypmsf1"), KindHEIC},

	{4, []byte("ftypqt  "), KindQuickTime},

	{4, []byte("ftypisom"), KindMP4},
	{4, []byte("ftypiso2"), KindMP4},
	{4, []byte("ftypmp41"), KindMP4},
	{4, []byte("ftypmp42"), KindMP4},
	{4, []byte("ftypM4V "), KindMP4},
	{4, []byte("ftypavc1"), KindMP4},
	{4, []byte("ftyp3gp4"), KindMP4},
	{4, []byte("ftyp3gp5"), KindMP4},
}

// Classify identifies the media kind of data from its leading bytes. Declared MIME types and
// file names are never consulted. Content matching no signature fails with UnknownType.
func Classify(data []byte) (Kind, error) {
	for _, sig := range signatures {
		end := sig.offset + len(sig.magic)
		if len(data) >= end && bytes.Equal(data[sig.offset:end], sig.magic) {
			return sig.kind, nil
		}
	}
	n := min(len(data), 16)
	return KindUnknown, apperr.Errorf(apperr.UnknownType, "classify", "unrecognised signature [%s] %q",
		hex.EncodeToString(data[:n]), printable(data[:n]))
}

func printable(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c >= 0x20 && c < 0x7f {
			sb.WriteByte(c)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

// IsVideo reports whether the kind is handled by the video pipeline.
func (k Kind) IsVideo() bool {
	return k == KindMP4 || k == KindQuickTime
}

// IsImage reports whether the kind is handled by the image pipeline.
func (k Kind) IsImage() bool {
	return k == KindJPEG || k == KindHEIC
}

// Extension returns the file extension, with leading dot, used when storing the kind.
func (k Kind) Extension() string {
	switch k {
	case KindJPEG:
		return ".jpg"
	case KindHEIC:
		return ".heic"
	case KindMP4:
		return ".mp4"
	case KindQuickTime:
		return ".mov"
	}
	return ""
}

// ContentType returns the MIME type of the kind.
func (k Kind) ContentType() string {
	switch k {
	case KindJPEG:
		return "image/jpeg"
	case KindHEIC:
		return "image/heic"
	case KindMP4:
		return "video/mp4"
	case KindQuickTime:
		return "video/quicktime"
	}
	return "application/octet-stream"
}

func (k Kind) String() string {
	if k == KindUnknown {
		return "unknown"
	}
	return string(k)
}

// extensionHints maps declared file extensions to the kind a client probably meant.
var extensionHints = map[string]Kind{
	".jpg":  KindJPEG,
	".jpeg": KindJPEG,
	".heic": KindHEIC,
	".heif": KindHEIC,
	".mp4":  KindMP4,
	".m4v":  KindMP4,
	".mov":  KindQuickTime,
}

// HintFromName returns the kind suggested by a declared file name. It is only used to log
// mismatches against Classify; it never decides how content is processed.
func HintFromName(name string) Kind {
	return extensionHints[strings.ToLower(filepath.Ext(name))]
}

// ContentTypeForFile returns the MIME type for a stored file name.
func ContentTypeForFile(name string) string {
	if k, ok := extensionHints[strings.ToLower(filepath.Ext(name))]; ok {
		return k.ContentType()
	}
	return "application/octet-stream"
}
