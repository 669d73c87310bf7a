package geocode

import (
	"context"
	"errors"
	"fmt"
	"math"

	"photo-share/internal/apperr"
	"photo-share/internal/logging"
)

// Placeholder is returned by Lenient when a lookup fails.
const Placeholder = "Unknown location"

// Resolver maps coordinates to a human readable place name.
type Resolver interface {
	Resolve(ctx context.Context, lat, lon float64) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, lat, lon float64) (string, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	return f(ctx, lat, lon)
}

// Lenient turns lookup failures into Placeholder instead of failing the upload.
// Cancellation of ctx is still reported.
type Lenient struct {
	Next Resolver
}

// Resolve implements Resolver.
func (l Lenient) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	place, err := l.Next.Resolve(ctx, lat, lon)
	if err == nil {
		return place, nil
	}
	if errors.Is(err, context.Canceled) {
		return "", err
	}
	logging.Warn("Geocode lookup for %.5f,%.5f failed, using placeholder: %v", lat, lon, err)
	return Placeholder, nil
}

// ValidCoordinates reports whether lat/lon are finite and in range.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// cacheKey rounds to four decimals (about 11m), well below place-name resolution.
func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lon)
}

func geocodeError(format string, args ...any) error {
	return apperr.Errorf(apperr.GeocodeError, "geocode", format, args...)
}
