package mediatypes

import (
	"errors"
	"testing"

	"photo-share/internal/apperr"
)

func ftyp(brand string) []byte {
	b := []byte{0x00, 0x00, 0x00, 0x18}
	b = append(b, "ftyp"...)
	b = append(b, brand...)
	return append(b, 0x00, 0x00, 0x00, 0x00)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    Kind
		wantErr bool
	}{
		{name: "JPEG APP0", data: []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}, want: KindJPEG},
		{name: "JPEG APP1 exif", data: []byte{0xFF, 0xD8, 0xFF, 0xE1, 0x12, 0x34}, want: KindJPEG},
		{name: "JPEG DQT", data: []byte{0xFF, 0xD8, 0xFF, 0xDB}, want: KindJPEG},
		{name: "JPEG APP14", data: []byte{0xFF, 0xD8, 0xFF, 0xEE, 0x00}, want: KindJPEG},
		{name: "HEIC", data: ftyp("heic"), want: KindHEIC},
		{name: "HEIC mif1", data: ftyp("mif1"), want: KindHEIC},
		{name: "QuickTime", data: ftyp("qt  "), want: KindQuickTime},
		{name: "MP4 isom", data: ftyp("isom"), want: KindMP4},
		{name: "MP4 mp42", data: ftyp("mp42"), want: KindMP4},
		{name: "M4V", data: ftyp("M4V "), want: KindMP4},
		{name: "PNG is unsupported", data: []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, wantErr: true},
		{name: "unknown ftyp brand", data: ftyp("zzzz"), wantErr: true},
		{name: "JPEG APP2 ICC first", data: []byte{0xFF, 0xD8, 0xFF, 0xE2, 0x02, 0x1C, 'I', 'C', 'C', '_'}, want: KindJPEG},
		{name: "JPEG SOF0 first", data: []byte{0xFF, 0xD8, 0xFF, 0xC0}, want: KindJPEG},
		{name: "JPEG bare SOI and marker prefix", data: []byte{0xFF, 0xD8, 0xFF}, want: KindJPEG},
		{name: "truncated JPEG", data: []byte{0xFF, 0xD8}, wantErr: true},
		{name: "SOI without marker", data: []byte{0xFF, 0xD8, 0x00, 0xE0}, wantErr: true},
		{name: "truncated ftyp", data: []byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p', 'h', 'e'}, wantErr: true},
		{name: "empty", data: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.data)
			if tt.wantErr {
				if !errors.Is(err, apperr.ErrUnknownType) {
					t.Fatalf("Classify() err = %v, want UnknownType", err)
				}
				if got != KindUnknown {
					t.Errorf("Classify() = %v on error, want KindUnknown", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Classify() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyIsPureFunctionOfPrefix(t *testing.T) {
	data := ftyp("heic")
	first, _ := Classify(data)
	for i := 0; i < 10; i++ {
		got, _ := Classify(data)
		if got != first {
			t.Fatalf("Classify changed result: %v then %v", first, got)
		}
	}

	// Trailing content beyond the signature does not matter.
	long := append(append([]byte{}, data...), make([]byte, 4096)...)
	if got, _ := Classify(long); got != first {
		t.Errorf("Classify(long) = %v, want %v", got, first)
	}
}

func TestHintFromNameDoesNotAffectClassify(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE1}
	if HintFromName("IMG_0001.HEIC") != KindHEIC {
		t.Fatal("expected HEIC hint")
	}
	got, err := Classify(jpeg)
	if err != nil || got != KindJPEG {
		t.Errorf("Classify() = %v, %v; want jpeg", got, err)
	}
}

func TestKindProperties(t *testing.T) {
	tests := []struct {
		kind        Kind
		ext         string
		contentType string
		video       bool
	}{
		{KindJPEG, ".jpg", "image/jpeg", false},
		{KindHEIC, ".heic", "image/heic", false},
		{KindMP4, ".mp4", "video/mp4", true},
		{KindQuickTime, ".mov", "video/quicktime", true},
		{KindUnknown, "", "application/octet-stream", false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.Extension(); got != tt.ext {
				t.Errorf("Extension() = %q, want %q", got, tt.ext)
			}
			if got := tt.kind.ContentType(); got != tt.contentType {
				t.Errorf("ContentType() = %q, want %q", got, tt.contentType)
			}
			if got := tt.kind.IsVideo(); got != tt.video {
				t.Errorf("IsVideo() = %v, want %v", got, tt.video)
			}
		})
	}
}

func TestContentTypeForFile(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"abc.jpg", "image/jpeg"},
		{"abc.MP4", "video/mp4"},
		{"abc.json", "application/octet-stream"},
		{"noext", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := ContentTypeForFile(tt.name); got != tt.want {
			t.Errorf("ContentTypeForFile(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
