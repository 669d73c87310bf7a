package transcoder

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseISO6709 parses the leading latitude and longitude of an ISO 6709 point such as
// "+37.7858-122.4064+012.345/". Degrees, degrees-minutes and degrees-minutes-seconds forms
// are recognised by the number of integer digits. Altitude and CRS suffixes are ignored.
func ParseISO6709(s string) (lat, lon float64, err error) {
	s = strings.TrimSpace(s)
	parts := splitSigned(s)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("iso6709: need latitude and longitude in %q", s)
	}
	if lat, err = parseComponent(parts[0], 2); err != nil {
		return 0, 0, fmt.Errorf("iso6709 latitude: %w", err)
	}
	if lon, err = parseComponent(parts[1], 3); err != nil {
		return 0, 0, fmt.Errorf("iso6709 longitude: %w", err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("iso6709: %f,%f out of range", lat, lon)
	}
	return lat, lon, nil
}

// splitSigned splits s into its sign-prefixed components, stopping at "/" or a CRS suffix.
func splitSigned(s string) []string {
	if i := strings.IndexAny(s, "/C"); i >= 0 {
		s = s[:i]
	}
	var parts []string
	start := -1
	for i := 0; i < len(s); i++ {
		if s[i] == '+' || s[i] == '-' {
			if start >= 0 {
				parts = append(parts, s[start:i])
			}
			start = i
		}
	}
	if start >= 0 {
		parts = append(parts, s[start:])
	}
	return parts
}

// parseComponent converts one signed component. degDigits is the width of the degree field:
// 2 for latitude, 3 for longitude.
func parseComponent(c string, degDigits int) (float64, error) {
	if len(c) < 2 {
		return 0, fmt.Errorf("empty component %q", c)
	}
	sign := 1.0
	if c[0] == '-' {
		sign = -1
	}
	body := c[1:]

	intPart := body
	frac := ""
	if i := strings.IndexByte(body, '.'); i >= 0 {
		intPart, frac = body[:i], body[i:]
	}
	for i := 0; i < len(intPart); i++ {
		if intPart[i] < '0' || intPart[i] > '9' {
			return 0, fmt.Errorf("invalid component %q", c)
		}
	}

	var deg, min, sec float64
	var err error
	switch len(intPart) {
	case degDigits:
		deg, err = strconv.ParseFloat(intPart+frac, 64)
	case degDigits + 2:
		deg, _ = strconv.ParseFloat(intPart[:degDigits], 64)
		min, err = strconv.ParseFloat(intPart[degDigits:]+frac, 64)
	case degDigits + 4:
		deg, _ = strconv.ParseFloat(intPart[:degDigits], 64)
		min, _ = strconv.ParseFloat(intPart[degDigits:degDigits+2], 64)
		sec, err = strconv.ParseFloat(intPart[degDigits+2:]+frac, 64)
	default:
		return 0, fmt.Errorf("unexpected digit count in %q", c)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid component %q: %w", c, err)
	}
	if min >= 60 || sec >= 60 {
		return 0, fmt.Errorf("minutes or seconds out of range in %q", c)
	}
	return sign * (deg + min/60 + sec/3600), nil
}
