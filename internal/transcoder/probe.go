package transcoder

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"photo-share/internal/apperr"
	"photo-share/internal/logging"
	"photo-share/internal/mediatypes"
)

var compatibleCodecs = map[string]bool{
	"h264": true,
	"vp8":  true,
	"vp9":  true,
	"av1":  true,
}

// Container tag keys holding an ISO 6709 location, in order of preference.
var locationTags = []string{
	"location",
	"com.apple.quicktime.location.ISO6709",
	"location-eng",
}

// Container tag keys holding the creation time, in order of preference.
var creationTags = []string{
	"com.apple.quicktime.creationdate",
	"creation_time",
}

// Stream is one stream of a probed file.
type Stream struct {
	Index     int               `json:"index"`
	CodecType string            `json:"codec_type"`
	CodecName string            `json:"codec_name"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Duration  string            `json:"duration"`
	Tags      map[string]string `json:"tags"`
	SideData  []struct {
		Rotation float64 `json:"rotation"`
	} `json:"side_data_list"`
}

// Format is the container section of ffprobe output.
type Format struct {
	FormatName string            `json:"format_name"`
	Duration   string            `json:"duration"`
	Tags       map[string]string `json:"tags"`
}

// ProbeResult is the parsed output of ffprobe -show_format -show_streams.
type ProbeResult struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Probe runs ffprobe on path.
func (t *Transcoder) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.ProbeTimeout)
	defer cancel()

	start := time.Now()
	out, err := t.run(ctx, t.cfg.FFprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if o := observe(); o != nil {
		o.ObserveProbe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, toolError(ctx, "probe", err)
	}
	return ParseProbe(out)
}

// ParseProbe decodes ffprobe JSON output.
func ParseProbe(data []byte) (*ProbeResult, error) {
	var res ProbeResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, apperr.E(apperr.CodecToolError, "probe", fmt.Errorf("decode ffprobe output: %w", err))
	}
	return &res, nil
}

// VideoStream returns the first video stream or fails with NoVideoStream.
func (p *ProbeResult) VideoStream() (*Stream, error) {
	for i := range p.Streams {
		s := &p.Streams[i]
		// Cover art in audio files is reported as a video stream with attached_pic.
		if s.CodecType == "video" && s.CodecName != "mjpeg" && s.CodecName != "png" {
			return s, nil
		}
	}
	return nil, apperr.Errorf(apperr.NoVideoStream, "probe", "no video stream among %d streams", len(p.Streams))
}

// Duration returns the container duration in seconds, falling back to the video stream's.
func (p *ProbeResult) Duration() float64 {
	if d, err := strconv.ParseFloat(p.Format.Duration, 64); err == nil && d > 0 {
		return d
	}
	if s, err := p.VideoStream(); err == nil {
		if d, err := strconv.ParseFloat(s.Duration, 64); err == nil && d > 0 {
			return d
		}
	}
	return 0
}

// NeedsTranscode reports whether the stream must be re-encoded to play in browsers.
func NeedsTranscode(kind mediatypes.Kind, s *Stream) bool {
	return kind != mediatypes.KindMP4 || !compatibleCodecs[s.CodecName]
}

// Rotation returns the display rotation in degrees, normalised to 0, 90, 180 or 270.
func (s *Stream) Rotation() int {
	deg := 0.0
	if r, ok := s.Tags["rotate"]; ok {
		if v, err := strconv.ParseFloat(r, 64); err == nil {
			deg = v
		}
	}
	for _, sd := range s.SideData {
		if sd.Rotation != 0 {
			deg = sd.Rotation
		}
	}
	n := int(deg) % 360
	if n < 0 {
		n += 360
	}
	return n
}

// DisplaySize returns width and height after rotation.
func (s *Stream) DisplaySize() (int, int) {
	if r := s.Rotation(); r == 90 || r == 270 {
		return s.Height, s.Width
	}
	return s.Width, s.Height
}

func (p *ProbeResult) tag(key string) string {
	if v := p.Format.Tags[key]; v != "" {
		return v
	}
	for _, s := range p.Streams {
		if v := s.Tags[key]; v != "" {
			return v
		}
	}
	return ""
}

// CreationTime returns the capture time from container tags.
func (p *ProbeResult) CreationTime() (time.Time, bool) {
	for _, key := range creationTags {
		v := strings.TrimSpace(p.tag(key))
		if v == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05-0700", "2006-01-02 15:04:05"} {
			if ts, err := time.Parse(layout, v); err == nil {
				if ts.Unix() <= 0 {
					break
				}
				return ts.UTC(), true
			}
		}
		logging.Debug("Unparseable %s tag %q", key, v)
	}
	return time.Time{}, false
}

// Location returns the coordinates in the container's ISO 6709 location tag.
func (p *ProbeResult) Location() (lat, lon float64, ok bool) {
	for _, key := range locationTags {
		v := p.tag(key)
		if v == "" {
			continue
		}
		lat, lon, err := ParseISO6709(v)
		if err != nil {
			logging.Debug("Unparseable %s tag %q: %v", key, v, err)
			continue
		}
		return lat, lon, true
	}
	return 0, 0, false
}
